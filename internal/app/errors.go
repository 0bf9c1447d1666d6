package app

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrUpstream           = errors.New("upstream service failed")

	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	ErrPostNotFound = fmt.Errorf("post %w", ErrNotFound)
)

// validationError wraps ErrValidation with a client-facing reason.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
