package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow-backend/internal/api/metrics"
	"github.com/taskflow/taskflow-backend/internal/core/domain"
	"github.com/taskflow/taskflow-backend/internal/core/policy"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
)

// Authorize enforces the role rule of op and the account's current active
// flag. Tokens outlive deactivation, so the user is re-read on every call.
// Ownership is checked by the services once the resource is loaded.
func Authorize(op policy.Operation, users ports.UserRepository, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var idp *domain.Identity
			if id, ok := domain.IdentityFrom(c.Request().Context()); ok {
				idp = &id
			}

			decision := policy.Evaluate(idp, op, nil)
			metrics.AuthorizationDecisionsTotal.WithLabelValues(op.String(), decision.String()).Inc()
			if decision != policy.Allow {
				return decision.Err()
			}

			u, err := users.FindByID(c.Request().Context(), idp.UserID)
			if errors.Is(err, domain.ErrUserNotFound) {
				log.Warn().Str("user_id", idp.UserID).Msg("token subject no longer exists")
				return domain.ErrUnauthenticated
			}
			if err != nil {
				return err
			}
			if !u.Active {
				log.Warn().Str("user_id", u.ID).Str("operation", op.String()).Msg("access denied, account inactive")
				return domain.ErrAccountInactive
			}
			return next(c)
		}
	}
}
