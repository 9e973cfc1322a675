package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Data       any       `json:"data"`
	StatusCode int       `json:"statusCode"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEnvelope builds an envelope; Success follows the status code.
func NewEnvelope(status int, message string, data any) Envelope {
	return Envelope{
		Success:    status < http.StatusBadRequest,
		Message:    message,
		Data:       data,
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
	}
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, NewEnvelope(status, message, data))
}

func notFound(c echo.Context, message string) error {
	return respond(c, http.StatusNotFound, message, nil)
}
