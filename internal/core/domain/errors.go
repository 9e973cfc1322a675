package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("email already registered")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")

	ErrInvalidToken    = errors.New("invalid token")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access forbidden")

	ErrProjectNotFound    = errors.New("project not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrNoValidMembers     = errors.New("no valid members found for given ids")
	ErrMemberNotInProject = errors.New("member is not part of this project")

	ErrTaskNotFound     = errors.New("task not found")
	ErrInvalidStatus    = errors.New("status must be TODO, IN_PROGRESS, or DONE")
	ErrInvalidPriority  = errors.New("priority must be LOW, MEDIUM, or HIGH")
	ErrDueDateNotFuture = errors.New("due date must be in the future")
)

// ValidationError carries field-level messages keyed by the request field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError reports a uniqueness or referential constraint violation
// raised by the store. Constraint is the index or constraint name.
type ConflictError struct {
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("constraint %q violated: %v", e.Constraint, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Message turns the constraint name into a caller-facing sentence, e.g.
// "users_email_unique" becomes "A record with this email already exists".
func (e *ConflictError) Message() string {
	name := strings.ToLower(e.Constraint)
	if strings.HasSuffix(name, "_fkey") || strings.Contains(name, "foreign") {
		return "Cannot delete or modify - record is referenced by other data"
	}

	parts := strings.Split(name, "_")
	var fields []string
	for i, p := range parts {
		if i == 0 && len(parts) > 1 {
			continue // table name
		}
		switch p {
		case "", "key", "unique", "idx", "index", "pkey", "uniq":
			continue
		}
		fields = append(fields, p)
	}
	if len(fields) == 0 {
		return "A record with this information already exists"
	}
	return "A record with this " + strings.Join(fields, " ") + " already exists"
}
