package webhook

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"authgate/internal/domain"
)

const testWebhookSecret = "webhook-test-secret"

func TestSign_RequiresSecret(t *testing.T) {
	if _, err := Sign([]byte("payload"), "", time.Time{}); !errors.Is(err, ErrNoSecret) {
		t.Errorf("Sign() error = %v, want ErrNoSecret", err)
	}
}

func TestSign_Format(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	header, err := Sign([]byte("payload"), testWebhookSecret, at)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	m := envelopeRe.FindStringSubmatch(header)
	if m == nil {
		t.Fatalf("header %q does not match the envelope format", header)
	}
	if m[1] != "1700000000000" {
		t.Errorf("timestamp = %s, want 1700000000000", m[1])
	}
	if len(m[2]) != 64 {
		t.Errorf("digest length = %d, want 64 hex characters", len(m[2]))
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	body := []byte(`{"event":"user.created"}`)
	at := time.Now()

	header, err := Sign(body, testWebhookSecret, at)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if err := Verify(body, header, testWebhookSecret, &VerifyOptions{Now: at}); err != nil {
		t.Errorf("Verify() error = %v, want nil", err)
	}
}

func TestVerify_ToleranceBoundary(t *testing.T) {
	body := []byte("payload")
	at := time.UnixMilli(1700000000000)

	header, err := Sign(body, testWebhookSecret, at)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{"exactly at tolerance", at.Add(DefaultTolerance), false},
		{"one ms past tolerance", at.Add(DefaultTolerance + time.Millisecond), true},
		{"exactly at tolerance in the past", at.Add(-DefaultTolerance), false},
		{"one ms before the window", at.Add(-DefaultTolerance - time.Millisecond), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(body, header, testWebhookSecret, &VerifyOptions{Now: tt.now})
			if tt.wantErr {
				if !errors.Is(err, domain.ErrForbidden) {
					t.Errorf("Verify() error = %v, want ErrForbidden", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Verify() error = %v, want nil", err)
			}
		})
	}
}

func TestVerify_CustomTolerance(t *testing.T) {
	body := []byte("payload")
	at := time.UnixMilli(1700000000000)

	header, err := Sign(body, testWebhookSecret, at)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	opts := &VerifyOptions{Tolerance: time.Second, Now: at.Add(2 * time.Second)}
	if err := Verify(body, header, testWebhookSecret, opts); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Verify() error = %v, want ErrForbidden", err)
	}
}

func TestVerify_TamperedBody(t *testing.T) {
	at := time.Now()
	header, err := Sign([]byte("original"), testWebhookSecret, at)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	err = Verify([]byte("tampered"), header, testWebhookSecret, &VerifyOptions{Now: at})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Verify() error = %v, want ErrForbidden", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	body := []byte("payload")
	at := time.Now()

	header, err := Sign(body, "other-secret", at)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	err = Verify(body, header, testWebhookSecret, &VerifyOptions{Now: at})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Verify() error = %v, want ErrForbidden", err)
	}
}

func TestVerify_MalformedHeader(t *testing.T) {
	body := []byte("payload")
	now := time.Now()
	digest64 := fmt.Sprintf("%064x", 0)

	headers := []string{
		"",
		"garbage",
		"t=abc,v1=" + digest64,
		"v1=" + digest64 + ",t=1700000000000",
		"t=1700000000000",
		"t=1700000000000,v1=NOTHEX",
		fmt.Sprintf("t=%d,v1=%s,extra=1", now.UnixMilli(), digest64),
	}

	for _, header := range headers {
		if err := Verify(body, header, testWebhookSecret, &VerifyOptions{Now: now}); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("Verify(%q) error = %v, want ErrForbidden", header, err)
		}
	}
}

func TestVerify_EmptySecret(t *testing.T) {
	body := []byte("payload")
	at := time.Now()

	header, err := Sign(body, testWebhookSecret, at)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if err := Verify(body, header, "", &VerifyOptions{Now: at}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Verify() error = %v, want ErrForbidden", err)
	}
}
