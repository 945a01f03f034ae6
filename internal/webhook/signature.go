// Package webhook signs and verifies HMAC-signed webhook requests.
// The signature envelope is "t=<unix-ms>,v1=<hex-hmac-sha256>" carried
// in a request header; the signed input is "<timestamp>.<raw body>",
// so neither the timestamp nor the body can be altered independently.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"authgate/internal/domain"
)

// DefaultTolerance bounds the replay window: signatures whose timestamp
// differs from verification time by more than this are rejected.
const DefaultTolerance = 5 * time.Minute

// ErrNoSecret is returned by Sign when no signing secret is supplied.
var ErrNoSecret = errors.New("webhook signing secret is required")

var envelopeRe = regexp.MustCompile(`^t=(\d+),v1=([0-9a-f]+)$`)

// Sign produces the signature header value for body. A zero timestamp
// defaults to the current time.
func Sign(body []byte, secret string, at time.Time) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	if at.IsZero() {
		at = time.Now()
	}
	ts := at.UnixMilli()
	return fmt.Sprintf("t=%d,v1=%s", ts, digest(body, ts, secret)), nil
}

// VerifyOptions tune Verify. The zero value uses DefaultTolerance and
// the current time.
type VerifyOptions struct {
	Tolerance time.Duration
	Now       time.Time // verification time override, used in tests
}

// Verify checks a signature header against the raw request body. Every
// failure mode (malformed header, empty secret, stale timestamp, digest
// mismatch) reports the same ErrForbidden so a caller cannot probe
// which check failed. The digest comparison is constant time.
func Verify(body []byte, signatureHeader, secret string, opts *VerifyOptions) error {
	if opts == nil {
		opts = &VerifyOptions{}
	}
	tolerance := opts.Tolerance
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	if secret == "" {
		return domain.ErrForbidden
	}

	m := envelopeRe.FindStringSubmatch(signatureHeader)
	if m == nil {
		return domain.ErrForbidden
	}
	ts, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return domain.ErrForbidden
	}

	age := now.UnixMilli() - ts
	if age < 0 {
		age = -age
	}
	if age > tolerance.Milliseconds() {
		return domain.ErrForbidden
	}

	if !hmac.Equal([]byte(digest(body, ts, secret)), []byte(m[2])) {
		return domain.ErrForbidden
	}
	return nil
}

func digest(body []byte, ts int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, body)
	return hex.EncodeToString(mac.Sum(nil))
}
