package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"empty", "", true},
		{"production", "production", false},
		{"prod", "prod", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_Validate_Production(t *testing.T) {
	tests := []struct {
		name          string
		sessionSecret string
		webhookSecret string
		wantError     bool
		errorContains string
	}{
		{
			name:          "valid_secrets",
			sessionSecret: "this-is-a-very-secure-secret-with-32-plus-characters",
			webhookSecret: "strong-webhook-secret",
			wantError:     false,
		},
		{
			name:          "empty_session_secret",
			sessionSecret: "",
			webhookSecret: "strong-webhook-secret",
			wantError:     true,
			errorContains: "SESSION_SECRET must be set",
		},
		{
			name:          "placeholder_session_secret",
			sessionSecret: "change-this-in-production",
			webhookSecret: "strong-webhook-secret",
			wantError:     true,
			errorContains: "SESSION_SECRET must be set",
		},
		{
			name:          "short_session_secret",
			sessionSecret: "too-short",
			webhookSecret: "strong-webhook-secret",
			wantError:     true,
			errorContains: "at least 32 characters",
		},
		{
			name:          "missing_webhook_secret",
			sessionSecret: "this-is-a-very-secure-secret-with-32-plus-characters",
			webhookSecret: "",
			wantError:     true,
			errorContains: "WEBHOOK_SECRET must be set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Environment:     "production",
				SessionSecret:   tt.sessionSecret,
				WebhookSecret:   tt.webhookSecret,
				SessionLifetime: 24 * time.Hour,
			}

			err := cfg.Validate()
			if tt.wantError {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Validate() error = %v, want containing %q", err, tt.errorContains)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestConfig_Validate_DevelopmentDefaults(t *testing.T) {
	cfg := &Config{
		Environment:     "development",
		SessionLifetime: 24 * time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
	if cfg.SessionSecret == "" {
		t.Error("development validation should fill in a session secret")
	}
	if cfg.WebhookSecret == "" {
		t.Error("development validation should fill in a webhook secret")
	}
}

func TestConfig_Validate_SessionLifetime(t *testing.T) {
	cfg := &Config{
		Environment:     "development",
		SessionLifetime: 0,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error for non-positive lifetime")
	}
	if !strings.Contains(err.Error(), "SESSION_LIFETIME") {
		t.Errorf("Validate() error = %v, want SESSION_LIFETIME message", err)
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "90m")
	if got := getDurationEnv("TEST_DURATION", time.Hour); got != 90*time.Minute {
		t.Errorf("getDurationEnv() = %v, want 90m", got)
	}

	t.Setenv("TEST_DURATION", "not-a-duration")
	if got := getDurationEnv("TEST_DURATION", time.Hour); got != time.Hour {
		t.Errorf("getDurationEnv(invalid) = %v, want default", got)
	}

	if got := getDurationEnv("TEST_DURATION_UNSET", 2*time.Hour); got != 2*time.Hour {
		t.Errorf("getDurationEnv(unset) = %v, want default", got)
	}
}
