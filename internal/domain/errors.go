package domain

import (
	"errors"
	"fmt"
)

var (
	// Input validation
	ErrUsernameAndPasswordRequired = errors.New("username and password are required")

	// Identity
	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrDuplicateUsername = errors.New("username already in use")
	ErrNotLoggedIn       = errors.New("not logged in")

	// Session integrity
	ErrSessionDecryption = errors.New("session has potentially been tampered with")
	ErrCSRFTokenMismatch = errors.New("CSRF token mismatch")

	// Trust boundary (webhooks). Deliberately undifferentiated so a
	// caller cannot learn which verification step failed.
	ErrForbidden = errors.New("forbidden")

	// Dispatch
	ErrNoAuthMethod          = errors.New("auth method not specified")
	ErrUnsupportedAuthMethod = errors.New("unsupported auth method")
)

// FieldRequiredError reports a missing signup field by name.
type FieldRequiredError struct {
	Field string
}

func (e *FieldRequiredError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// IsFieldRequired reports whether err is a FieldRequiredError.
func IsFieldRequired(err error) bool {
	var fre *FieldRequiredError
	return errors.As(err, &fre)
}
