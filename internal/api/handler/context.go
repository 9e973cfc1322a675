package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskflow/taskflow-backend/internal/core/domain"
)

// actor returns the identity attached by the authentication middleware.
// Without one the request is unauthenticated.
func actor(c echo.Context) (domain.Identity, error) {
	id, ok := domain.IdentityFrom(c.Request().Context())
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// pathID reads a required path parameter.
func pathID(c echo.Context, name string) (string, error) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Missing value for parameter '"+name+"'")
	}
	return id, nil
}
