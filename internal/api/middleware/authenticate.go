package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow-backend/internal/api/metrics"
	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// CookieName is the session cookie read before the Authorization header.
const CookieName = "token"

// Authenticate attaches the identity carried by a valid token to the request
// context. It never rejects: a missing or invalid token leaves the request
// anonymous and Authorize decides later. An identity already in the context
// is not replaced.
func Authenticate(codec ports.TokenCodec, log zerolog.Logger, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := domain.IdentityFrom(req.Context()); ok {
				return next(c)
			}

			token, source := extractToken(c)
			if token == "" {
				metrics.TokenValidationsTotal.WithLabelValues("absent").Inc()
				log.Debug().Str("path", c.Path()).Msg("no token presented")
				return next(c)
			}

			id, err := codec.Validate(token, now())
			if err != nil {
				metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
				log.Warn().Err(err).Str("source", source).Str("path", c.Path()).Msg("invalid token")
				return next(c)
			}

			metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}

// extractToken prefers the session cookie and falls back to a bearer header
// only when no cookie is present.
func extractToken(c echo.Context) (token, source string) {
	for _, ck := range c.Cookies() {
		if strings.EqualFold(ck.Name, CookieName) && ck.Value != "" {
			return ck.Value, "cookie"
		}
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1]), "header"
	}
	return "", ""
}
