package auth

import (
	"errors"
	"regexp"
	"testing"

	"authgate/internal/domain"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestNewCSRFToken_Format(t *testing.T) {
	token := NewCSRFToken()
	if !uuidPattern.MatchString(token) {
		t.Errorf("token = %q, want UUID format", token)
	}
}

func TestNewCSRFToken_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := NewCSRFToken()
		if seen[token] {
			t.Errorf("duplicate token on iteration %d", i)
		}
		seen[token] = true
	}
}

func TestValidateCSRF(t *testing.T) {
	token := NewCSRFToken()

	tests := []struct {
		name         string
		sessionToken string
		headerToken  string
		wantErr      bool
	}{
		{"matching tokens", token, token, false},
		{"mismatched tokens", token, NewCSRFToken(), true},
		{"missing header token", token, "", true},
		{"missing session token", "", token, true},
		{"both missing", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCSRF(tt.sessionToken, tt.headerToken)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrCSRFTokenMismatch) {
					t.Errorf("ValidateCSRF() error = %v, want ErrCSRFTokenMismatch", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateCSRF() error = %v, want nil", err)
			}
		})
	}
}
