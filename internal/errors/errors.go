package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("resource already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDisabled      = errors.New("account is disabled")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrTooManyLoginAttempts = errors.New("too many failed login attempts")

	ErrEmailAlreadyInUse = fmt.Errorf("email already in use: %w", ErrConflict)
	ErrUsernameTaken     = fmt.Errorf("username already taken: %w", ErrConflict)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field-level problem found in a request.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
