package auth

import (
	"crypto/hmac"

	"authgate/internal/domain"

	"github.com/google/uuid"
)

// NewCSRFToken mints a fresh CSRF token. A new token is issued on every
// successful login and embedded both in the encrypted session and in
// the X-CSRF-Token response header (double-submit pattern).
func NewCSRFToken() string {
	return uuid.New().String()
}

// ValidateCSRF compares the token stored in the session against the one
// echoed by the client. Both must be non-empty and equal; comparison is
// constant time.
func ValidateCSRF(sessionToken, headerToken string) error {
	if sessionToken == "" || headerToken == "" {
		return domain.ErrCSRFTokenMismatch
	}
	if !hmac.Equal([]byte(sessionToken), []byte(headerToken)) {
		return domain.ErrCSRFTokenMismatch
	}
	return nil
}
