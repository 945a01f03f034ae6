package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"authgate/internal/domain"
)

const (
	// sessionCookieName is the exact cookie name holding the encrypted
	// session; matching is exact, never prefix-based.
	sessionCookieName = "session"

	// payloadDelimiter joins the JSON payload and the CSRF token inside
	// the encrypted plaintext. Decrypt splits on its last occurrence, so
	// semicolons inside JSON string values are harmless; Encrypt rejects
	// CSRF tokens containing it.
	payloadDelimiter = ";"

	gcmNonceSize = 12
)

// ErrEmptySecret is returned when a codec is constructed without a
// session secret.
var ErrEmptySecret = errors.New("session secret is required")

// SessionCodec encrypts and decrypts the session cookie payload with
// AES-256-GCM. The key is the SHA-256 digest of the configured secret,
// the wire format is base64(nonce || ciphertext).
type SessionCodec struct {
	gcm cipher.AEAD
}

// NewSessionCodec creates a codec keyed by secret.
func NewSessionCodec(secret string) (*SessionCodec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &SessionCodec{gcm: gcm}, nil
}

// Encrypt serializes payload to JSON, appends the CSRF token behind the
// delimiter and encrypts the result. Returns the cookie value
// (ciphertext only, no attributes).
func (c *SessionCodec) Encrypt(payload any, csrfToken string) (string, error) {
	if strings.Contains(csrfToken, payloadDelimiter) {
		return "", fmt.Errorf("CSRF token must not contain %q", payloadDelimiter)
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal session payload: %w", err)
	}
	plaintext = append(plaintext, payloadDelimiter...)
	plaintext = append(plaintext, csrfToken...)

	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	blob := c.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt locates the session cookie in a Cookie header value and
// returns the decrypted payload and CSRF token. A missing cookie or an
// empty value yields (nil, "", nil); a present but undecryptable value
// yields ErrSessionDecryption.
func (c *SessionCodec) Decrypt(cookieHeader string) (payload map[string]any, csrfToken string, err error) {
	value := sessionCookieValue(cookieHeader)
	if value == "" {
		return nil, "", nil
	}

	blob, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(blob) < gcmNonceSize+c.gcm.Overhead() {
		return nil, "", domain.ErrSessionDecryption
	}

	plaintext, err := c.gcm.Open(nil, blob[:gcmNonceSize], blob[gcmNonceSize:], nil)
	if err != nil {
		return nil, "", domain.ErrSessionDecryption
	}

	idx := strings.LastIndex(string(plaintext), payloadDelimiter)
	if idx < 0 {
		return nil, "", domain.ErrSessionDecryption
	}

	if err := json.Unmarshal(plaintext[:idx], &payload); err != nil {
		return nil, "", domain.ErrSessionDecryption
	}
	return payload, string(plaintext[idx+1:]), nil
}

// sessionCookieValue extracts the session cookie value from a raw
// Cookie header. Pairs are delimited by ";" with optional whitespace.
func sessionCookieValue(header string) string {
	for _, pair := range strings.Split(header, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if found && name == sessionCookieName {
			return value
		}
	}
	return ""
}

// SessionCookie builds a Set-Cookie header value for an encrypted
// session. Attribute order is fixed.
func SessionCookie(value, domain string, expires time.Time) string {
	return fmt.Sprintf("%s=%s; Path=/; Domain=%s; HttpOnly; SameSite=Strict; Secure; Expires=%s",
		sessionCookieName, value, domain, expires.UTC().Format(http.TimeFormat))
}

// ExpiredSessionCookie builds the Set-Cookie header value that deletes
// the session on the client (empty value, epoch expiry).
func ExpiredSessionCookie(domain string) string {
	return SessionCookie("", domain, time.Unix(0, 0))
}
