package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"authgate/internal/auth"
	"authgate/internal/observability"
)

// CSRF validates the double-submit token for state-changing requests.
// The token lives inside the encrypted session cookie and must be
// echoed back in a request header; a valid request proves the client
// can both read the cookie and set custom headers, which cross-origin
// attackers cannot do together.
//
// Validation flow:
//  1. Skip safe HTTP methods (GET, HEAD, OPTIONS).
//  2. Skip the token-issuing verbs (login, signup) and exempt paths.
//  3. Requests without a session cookie pass through; the verbs
//     themselves decide whether an anonymous call is acceptable.
//  4. Requests with a session must carry a header token matching the
//     session token (constant-time comparison); 403 otherwise.
func CSRF(d *auth.Dispatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) || isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			sessionToken, err := d.SessionCSRFToken(auth.Request{Headers: r.Header})
			if err != nil {
				observability.SessionDecryptionFailuresTotal.Inc()
				logCSRFFailure(r, "undecryptable session")
				http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
				return
			}
			if sessionToken == "" {
				// No session: nothing to protect yet
				next.ServeHTTP(w, r)
				return
			}

			if err := auth.ValidateCSRF(sessionToken, r.Header.Get(d.CSRFHeader())); err != nil {
				observability.CSRFFailuresTotal.Inc()
				logCSRFFailure(r, "token mismatch")
				http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isSafeMethod returns true for idempotent methods that never change
// state and therefore need no CSRF token.
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

// isExemptPath returns true for paths that skip CSRF validation:
// health, metrics, webhooks (signature-verified instead) and the
// token-issuing auth verbs.
func isExemptPath(path string) bool {
	exemptPaths := []string{
		"/health",
		"/metrics",
		"/webhooks/",
		"/auth/login",
		"/auth/signup",
	}

	for _, exemptPath := range exemptPaths {
		if strings.HasPrefix(path, exemptPath) {
			return true
		}
	}
	return false
}

// logCSRFFailure records a security event for monitoring.
func logCSRFFailure(r *http.Request, reason string) {
	slog.Warn("CSRF validation failed",
		slog.String("reason", reason),
		slog.String("method", r.Method),
		slog.String("path", r.RequestURI),
		slog.String("remote_addr", r.RemoteAddr),
	)
}
