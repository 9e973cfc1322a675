package ports

import (
	"context"
	"time"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// TokenCodec issues and validates signed identity tokens.
type TokenCodec interface {
	Issue(subjectID string, role domain.Role, now time.Time) (string, error)
	// Validate never panics; any defect in the token yields
	// domain.ErrInvalidToken.
	Validate(token string, now time.Time) (domain.Identity, error)
	TTL() time.Duration
}

// PasswordHasher is the one-way credential verifier.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// LoginThrottle counts failed logins per key within a window.
type LoginThrottle interface {
	// Allow reports whether another attempt is permitted for key.
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// Notifier delivers account notifications without blocking the caller.
type Notifier interface {
	Welcome(ctx context.Context, to, name string) error
}
