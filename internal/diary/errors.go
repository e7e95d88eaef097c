package diary

import (
	"errors"

	"github.com/AnshRaj112/ediary-backend/pkg/utils"
)

// ValidationError reports a rejected input field.
type ValidationError = utils.ValidationError

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthRequired       = errors.New("authentication required")
	ErrNetwork            = errors.New("network unavailable")
	ErrConflict           = errors.New("already exists")
)

// ConflictError reports a uniqueness violation with a user-facing message.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
