package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// AuthService implements login, registration and admin seeding.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	codec    ports.TokenCodec
	throttle ports.LoginThrottle
	notifier ports.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithLoginThrottle enables failed-login counting.
func WithLoginThrottle(t ports.LoginThrottle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

// WithNotifier enables the welcome notification on registration.
func WithNotifier(n ports.Notifier) AuthOption {
	return func(s *AuthService) { s.notifier = n }
}

// WithClock overrides the time source used for token issuance.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	codec ports.TokenCodec,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		users:  users,
		hasher: hasher,
		codec:  codec,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	s.log.Info().Str("email", email).Msg("login attempt")

	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !s.allowAttempt(ctx, email) {
		s.log.Warn().Str("email", email).Msg("login blocked - too many failed attempts")
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.recordFailure(ctx, email)
		s.log.Warn().Str("email", email).Msg("login failed - user not found")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if !user.Active {
		s.log.Warn().Str("user_id", user.ID).Msg("login failed - account inactive")
		return nil, domain.ErrAccountInactive
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordFailure(ctx, email)
		s.log.Warn().Str("user_id", user.ID).Msg("login failed - invalid password")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.codec.Issue(user.ID, user.Role, s.now())
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.resetAttempts(ctx, email)

	s.log.Info().Str("user_id", user.ID).Str("role", user.Role.String()).Msg("login successful")
	return &ports.LoginResult{User: user, Token: token, MaxAge: s.codec.TTL()}, nil
}

// Register provisions an active account and queues the welcome email.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	s.log.Info().Str("email", email).Str("role", in.Role).Msg("registration attempt")

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		s.log.Warn().Str("email", email).Msg("registration failed - email already exists")
		return nil, domain.ErrUserExists
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		s.log.Warn().Str("role", in.Role).Msg("registration failed - invalid role")
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.Welcome(ctx, created.Email, created.Name); err != nil {
			s.log.Warn().Err(err).Str("user_id", created.ID).Msg("welcome email not queued")
		}
	}

	s.log.Info().Str("user_id", created.ID).Str("role", created.Role.String()).Msg("user registered")
	return created, nil
}

// EnsureAdmin creates an active admin when the user store is empty. It
// reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("ensure admin: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("ensure admin: hash password: %w", err)
	}
	admin, err := s.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        domain.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Active:       true,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return false, fmt.Errorf("ensure admin: %w", err)
	}

	s.log.Warn().Str("user_id", admin.ID).Str("email", admin.Email).
		Msg("default admin created - change the password immediately")
	return true, nil
}

// Throttle faults never block a login.
func (s *AuthService) allowAttempt(ctx context.Context, key string) bool {
	if s.throttle == nil {
		return true
	}
	ok, err := s.throttle.Allow(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable")
		return true
	}
	return ok
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

func (s *AuthService) resetAttempts(ctx context.Context, key string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login attempts")
	}
}
