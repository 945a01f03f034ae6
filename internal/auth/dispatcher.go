package auth

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"authgate/internal/domain"
)

// Method is the closed set of dispatchable auth verbs.
type Method string

const (
	MethodLogin    Method = "login"
	MethodLogout   Method = "logout"
	MethodSignup   Method = "signup"
	MethodGetToken Method = "getToken"
)

// ParseMethod maps a method name onto the closed verb set.
func ParseMethod(name string) (Method, error) {
	switch Method(name) {
	case MethodLogin, MethodLogout, MethodSignup, MethodGetToken:
		return Method(name), nil
	case "":
		return "", domain.ErrNoAuthMethod
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedAuthMethod, name)
	}
}

// Request is the inbound request shape consumed by the dispatcher. It
// is an immutable per-request value; the dispatcher keeps no state
// between requests.
type Request struct {
	Path        string
	QueryParams map[string]string
	Body        string
	Headers     http.Header
}

// bodyFields parses the JSON request body. An empty or malformed body
// yields an empty map; verbs report missing fields themselves.
func (r Request) bodyFields() map[string]any {
	fields := map[string]any{}
	if r.Body != "" {
		_ = json.Unmarshal([]byte(r.Body), &fields)
	}
	return fields
}

// BodyField returns a string field from the JSON request body, or ""
// when absent or not a string.
func (r Request) BodyField(field string) string {
	s, _ := r.bodyFields()[field].(string)
	return s
}

// SignupFunc completes a signup. It owns record creation: it receives
// the username, the salted hash and salt, and any extra attributes from
// the request body, and returns the created record. It may reject with
// its own error, which propagates to the caller unchanged.
type SignupFunc func(ctx context.Context, username, hashedPassword, salt string, attributes domain.Record) (domain.Record, error)

// Config is the immutable configuration for a Dispatcher.
type Config struct {
	Store domain.CredentialStore

	// Field-name mapping into the credential store's records.
	IDField             string // default "id"
	UsernameField       string // default "username"
	HashedPasswordField string // default "hashedPassword"
	SaltField           string // default "salt"

	// ExcludedFields are stripped from records returned by
	// CurrentUser. Defaults to the hashed-password and salt fields.
	ExcludedFields []string

	SessionSecret   string
	CookieDomain    string
	SessionLifetime time.Duration // default 24h

	// AuthRoutePrefix is the route prefix ahead of the method path
	// segment, e.g. "/auth" for "/auth/login". Default "/auth".
	AuthRoutePrefix string

	// CSRFHeader names the request header carrying the double-submit
	// token. Default "X-CSRF-Token".
	CSRFHeader string

	// Signup completes record creation; when nil, a default handler
	// stores username/hash/salt plus the extra attributes via Store.
	Signup SignupFunc
}

func (c *Config) applyDefaults() {
	if c.IDField == "" {
		c.IDField = "id"
	}
	if c.UsernameField == "" {
		c.UsernameField = "username"
	}
	if c.HashedPasswordField == "" {
		c.HashedPasswordField = "hashedPassword"
	}
	if c.SaltField == "" {
		c.SaltField = "salt"
	}
	if c.ExcludedFields == nil {
		c.ExcludedFields = []string{c.HashedPasswordField, c.SaltField}
	}
	if c.SessionLifetime == 0 {
		c.SessionLifetime = 24 * time.Hour
	}
	if c.AuthRoutePrefix == "" {
		c.AuthRoutePrefix = "/auth"
	}
	if c.CSRFHeader == "" {
		c.CSRFHeader = "X-CSRF-Token"
	}
}

// Dispatcher routes an inbound request to one of the auth verbs and
// orchestrates the hasher, session codec, CSRF validator and credential
// store. It is safe for concurrent use: all per-request state lives in
// the Request value.
type Dispatcher struct {
	cfg   Config
	codec *SessionCodec
}

// NewDispatcher builds a dispatcher from cfg. The credential store and
// session secret are required.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if cfg.Store == nil {
		return nil, errors.New("credential store is required")
	}
	cfg.applyDefaults()

	codec, err := NewSessionCodec(cfg.SessionSecret)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{cfg: cfg, codec: codec}
	if d.cfg.Signup == nil {
		d.cfg.Signup = d.defaultSignup
	}
	return d, nil
}

// Codec exposes the session codec for collaborators (CSRF middleware,
// tests).
func (d *Dispatcher) Codec() *SessionCodec {
	return d.codec
}

// CSRFHeader returns the configured double-submit header name.
func (d *Dispatcher) CSRFHeader() string {
	return d.cfg.CSRFHeader
}

// Handle resolves the request's method and executes the matching verb,
// translating typed errors into formatted responses.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	method, err := d.resolveMethod(req)
	if err != nil {
		// Unknown verb names get an empty 404 rather than an error body,
		// so the endpoint does not enumerate its verb set.
		if errors.Is(err, domain.ErrUnsupportedAuthMethod) {
			return NotFound()
		}
		return BadRequest(err.Error())
	}

	var resp Response
	switch method {
	case MethodLogin:
		resp, err = d.login(ctx, req)
	case MethodLogout:
		resp, err = d.logout(req)
	case MethodSignup:
		resp, err = d.signup(ctx, req)
	case MethodGetToken:
		resp, err = d.getToken(ctx, req)
	}
	if err != nil {
		return d.errorResponse(err)
	}
	return resp
}

// resolveMethod picks the verb, first match wins: trailing path segment
// after the auth route prefix, then the "method" query parameter, then
// a "method" field in the JSON body.
func (d *Dispatcher) resolveMethod(req Request) (Method, error) {
	name := ""
	if rest, ok := strings.CutPrefix(req.Path, d.cfg.AuthRoutePrefix+"/"); ok {
		name = strings.Trim(rest, "/")
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
	}
	if name == "" {
		name = req.QueryParams["method"]
	}
	if name == "" {
		name = req.BodyField("method")
	}
	return ParseMethod(name)
}

func (d *Dispatcher) login(ctx context.Context, req Request) (Response, error) {
	username := strings.TrimSpace(req.BodyField(d.cfg.UsernameField))
	password := req.BodyField("password")
	if username == "" || strings.TrimSpace(password) == "" {
		return Response{}, domain.ErrUsernameAndPasswordRequired
	}

	user, err := d.cfg.Store.FindUnique(ctx, d.cfg.UsernameField, username)
	if err != nil {
		return Response{}, err
	}

	hash, _ := HashPassword(password, user.String(d.cfg.SaltField))
	if !hmac.Equal([]byte(hash), []byte(user.String(d.cfg.HashedPasswordField))) {
		return Response{}, domain.ErrIncorrectPassword
	}

	csrfToken := NewCSRFToken()
	payload := map[string]any{d.cfg.IDField: user[d.cfg.IDField]}

	ciphertext, err := d.codec.Encrypt(payload, csrfToken)
	if err != nil {
		return Response{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}

	return Ok(string(body), map[string]string{
		"Set-Cookie":   SessionCookie(ciphertext, d.cfg.CookieDomain, time.Now().Add(d.cfg.SessionLifetime)),
		"X-CSRF-Token": csrfToken,
	}), nil
}

// logout always succeeds: it returns a Set-Cookie that deletes the
// session on the client. An optional "message" body field is echoed
// back.
func (d *Dispatcher) logout(req Request) (Response, error) {
	body := ""
	if msg := req.BodyField("message"); msg != "" {
		body = messageBody(msg)
	}
	return Ok(body, map[string]string{
		"Set-Cookie": ExpiredSessionCookie(d.cfg.CookieDomain),
	}), nil
}

func (d *Dispatcher) signup(ctx context.Context, req Request) (Response, error) {
	fields := req.bodyFields()
	username, _ := fields[d.cfg.UsernameField].(string)
	password, _ := fields["password"].(string)

	if strings.TrimSpace(username) == "" {
		return Response{}, &domain.FieldRequiredError{Field: d.cfg.UsernameField}
	}
	if strings.TrimSpace(password) == "" {
		return Response{}, &domain.FieldRequiredError{Field: "password"}
	}

	_, err := d.cfg.Store.FindUnique(ctx, d.cfg.UsernameField, username)
	switch {
	case err == nil:
		return Response{}, domain.ErrDuplicateUsername
	case !errors.Is(err, domain.ErrUserNotFound):
		return Response{}, err
	}

	attributes := domain.Record{}
	for k, v := range fields {
		if k == d.cfg.UsernameField || k == "password" || k == "method" {
			continue
		}
		attributes[k] = v
	}

	hash, salt := HashPassword(password, "")
	created, err := d.cfg.Signup(ctx, username, hash, salt, attributes)
	if err != nil {
		return Response{}, err
	}

	body, err := json.Marshal(created)
	if err != nil {
		return Response{}, err
	}
	return Ok(string(body), nil), nil
}

// getToken issues a signed bearer token for the current session's user.
// Deliberately lenient: failures during user resolution are rendered as
// a {"message": ...} body in a 200-shaped response so the endpoint's
// status code does not reveal authentication state. Missing and
// undecryptable sessions are the exception: those are auth errors, and
// a tampered cookie must still be cleared off the client.
func (d *Dispatcher) getToken(ctx context.Context, req Request) (Response, error) {
	user, err := d.CurrentUser(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrNotLoggedIn) || errors.Is(err, domain.ErrSessionDecryption) {
			return Response{}, err
		}
		return Ok(messageBody(err.Error()), nil), nil
	}

	token, err := signBearerToken(fmt.Sprint(user[d.cfg.IDField]), d.cfg.SessionSecret, d.cfg.SessionLifetime)
	if err != nil {
		return Ok(messageBody(err.Error()), nil), nil
	}
	if token == "" {
		return Ok("", nil), nil
	}
	return Ok(token, nil), nil
}

// CurrentUser resolves the authenticated user from the request's
// session cookie and strips the configured excluded fields from the
// returned record. Fails with ErrNotLoggedIn when no session is
// present, ErrSessionDecryption when the cookie cannot be decrypted and
// ErrUserNotFound when the session id no longer resolves.
func (d *Dispatcher) CurrentUser(ctx context.Context, req Request) (domain.Record, error) {
	payload, _, err := d.codec.Decrypt(req.Headers.Get("Cookie"))
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, domain.ErrNotLoggedIn
	}

	id, ok := payload[d.cfg.IDField]
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}

	user, err := d.cfg.Store.FindUnique(ctx, d.cfg.IDField, id)
	if err != nil {
		return nil, err
	}

	user = user.Clone()
	for _, field := range d.cfg.ExcludedFields {
		delete(user, field)
	}
	return user, nil
}

// SessionCSRFToken returns the CSRF token embedded in the request's
// session, or "" when no session is present. Used by the CSRF
// middleware to enforce the double-submit check on authenticated
// state-changing calls.
func (d *Dispatcher) SessionCSRFToken(req Request) (string, error) {
	_, token, err := d.codec.Decrypt(req.Headers.Get("Cookie"))
	return token, err
}

// defaultSignup stores username, hash and salt plus the extra
// attributes through the credential store.
func (d *Dispatcher) defaultSignup(ctx context.Context, username, hashedPassword, salt string, attributes domain.Record) (domain.Record, error) {
	data := attributes.Clone()
	data[d.cfg.UsernameField] = username
	data[d.cfg.HashedPasswordField] = hashedPassword
	data[d.cfg.SaltField] = salt
	return d.cfg.Store.Create(ctx, data)
}

// errorResponse translates the error taxonomy into a formatted
// response. Session decryption failures also clear the client cookie.
func (d *Dispatcher) errorResponse(err error) Response {
	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		return Response{StatusCode: 401, Body: messageBody(err.Error())}
	case errors.Is(err, domain.ErrSessionDecryption):
		return Response{
			StatusCode: 401,
			Body:       messageBody(err.Error()),
			Headers:    map[string]string{"Set-Cookie": ExpiredSessionCookie(d.cfg.CookieDomain)},
		}
	case errors.Is(err, domain.ErrCSRFTokenMismatch), errors.Is(err, domain.ErrForbidden):
		return Response{StatusCode: 403, Body: messageBody(err.Error())}
	default:
		return BadRequest(err.Error())
	}
}
