package utils

import (
	"net/mail"
	"strings"
)

const (
	MinUsernameLength = 6
	MaxUsernameLength = 50
	MinPasswordLength = 6
)

// ValidationError represents a validation error on a single input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ValidateUsername enforces the registration length rules.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return NewValidationError("username", "Username is required")
	}
	if len(username) < MinUsernameLength {
		return NewValidationError("username", "Username should be at least 6 characters long")
	}
	if len(username) > MaxUsernameLength {
		return NewValidationError("username", "Username should be at most 50 characters long")
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return NewValidationError("username", "Username cannot contain whitespace")
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if password == "" {
		return NewValidationError("password", "Password is required")
	}
	if len(password) < MinPasswordLength {
		return NewValidationError("password", "Password should be at least 6 characters long")
	}
	return nil
}

// ValidateEmail checks that email parses as a bare address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return NewValidationError("email", "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return NewValidationError("email", "Email address is invalid")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername converts username to lowercase for case-insensitive lookups.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
