package auth

import (
	"testing"
	"time"
)

func TestBearerToken_RoundTrip(t *testing.T) {
	token, err := signBearerToken("user-7", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("signBearerToken() error = %v", err)
	}

	userID, err := ParseBearerToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseBearerToken() error = %v", err)
	}
	if userID != "user-7" {
		t.Errorf("user id = %q, want user-7", userID)
	}
}

func TestParseBearerToken_WrongSecret(t *testing.T) {
	token, err := signBearerToken("user-7", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("signBearerToken() error = %v", err)
	}

	if _, err := ParseBearerToken(token, "a-different-secret"); err == nil {
		t.Error("ParseBearerToken() accepted a token signed with another secret")
	}
}

func TestParseBearerToken_Expired(t *testing.T) {
	token, err := signBearerToken("user-7", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("signBearerToken() error = %v", err)
	}

	if _, err := ParseBearerToken(token, testSecret); err == nil {
		t.Error("ParseBearerToken() accepted an expired token")
	}
}

func TestParseBearerToken_Garbage(t *testing.T) {
	if _, err := ParseBearerToken("not.a.jwt", testSecret); err == nil {
		t.Error("ParseBearerToken() accepted garbage")
	}
}
