package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskflow/taskflow-backend/internal/api/handler"
	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes and messages.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders every failure in the uniform response envelope.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, data := resolveError(err, log, c)
		env := handler.NewEnvelope(code, msg, data)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, env)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, any) {
	// Field-level validation failures carry their field map as data.
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		log.Warn().Interface("fields", ve.Fields).Str("path", c.Path()).Msg("validation error")
		return http.StatusBadRequest, "Validation failed", ve.Fields
	}

	// Constraint violations get a message derived from the constraint name.
	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		log.Error().Err(err).Str("path", c.Path()).Msg("database integrity violation")
		if errors.Is(err, domain.ErrUserExists) {
			return http.StatusConflict, "Email already registered!", nil
		}
		return http.StatusConflict, ce.Message(), nil
	}

	// Echo's own errors (bind failures, 404 from router, rate limiter, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "Authentication required.", nil
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials.", nil
	case errors.Is(err, domain.ErrAccountInactive):
		return http.StatusForbidden, "Account is inactive. Contact admin.", nil
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Access denied - insufficient permissions", nil
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Too many failed login attempts. Try again later.", nil
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "Email already registered!", nil
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "Invalid role.", nil
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found.", nil
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, "Project not found.", nil
	case errors.Is(err, domain.ErrMemberNotFound):
		return http.StatusNotFound, "Member not found.", nil
	case errors.Is(err, domain.ErrTaskNotFound):
		if c.Request().Method == http.MethodDelete {
			return http.StatusNotFound, "Task not found for this project.", nil
		}
		return http.StatusNotFound, "Task not found.", nil
	case errors.Is(err, domain.ErrNoValidMembers):
		return http.StatusBadRequest, "No valid members found for given IDs.", nil
	case errors.Is(err, domain.ErrMemberNotInProject):
		return http.StatusBadRequest, "Member is not part of this project", nil
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, "Validation failed", map[string]string{"status": domain.ErrInvalidStatus.Error()}
	case errors.Is(err, domain.ErrInvalidPriority):
		return http.StatusBadRequest, "Validation failed", map[string]string{"priority": domain.ErrInvalidPriority.Error()}
	case errors.Is(err, domain.ErrDueDateNotFuture):
		return http.StatusBadRequest, "Validation failed", map[string]string{"dueDate": domain.ErrDueDateNotFuture.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "An unexpected error occurred.", nil
}
