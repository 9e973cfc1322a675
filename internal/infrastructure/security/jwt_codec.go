package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// MinSecretLength is the shortest HS256 key accepted.
const MinSecretLength = 32

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTCodec issues and validates HS256 identity tokens. The subject claim is
// the user id; the role travels in an uppercase "role" claim.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTCodec builds a codec. A non-positive ttl defaults to 24h.
func NewJWTCodec(secret string, ttl time.Duration) (*JWTCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTCodec{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the lifetime given to every issued token.
func (c *JWTCodec) TTL() time.Duration { return c.ttl }

// Issue signs a token for subjectID valid from now until now+TTL.
func (c *JWTCodec) Issue(subjectID string, role domain.Role, now time.Time) (string, error) {
	if subjectID == "" {
		return "", errors.New("issue token: empty subject")
	}
	if !role.Valid() {
		return "", fmt.Errorf("issue token: %w", domain.ErrInvalidRole)
	}

	claims := tokenClaims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm and expiry as of now. A token is
// valid strictly before its expiry instant.
func (c *JWTCodec) Validate(token string, now time.Time) (domain.Identity, error) {
	var claims tokenClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: subject missing", domain.ErrInvalidToken)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: role %q", domain.ErrInvalidToken, claims.Role)
	}

	return domain.Identity{UserID: claims.Subject, Role: role}, nil
}
