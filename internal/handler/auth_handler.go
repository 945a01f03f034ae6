package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"authgate/internal/auth"
	"authgate/internal/messaging"
	"authgate/internal/observability"
)

// AuthHandler adapts HTTP requests into the auth dispatcher's request
// shape and writes its responses back out.
type AuthHandler struct {
	dispatcher *auth.Dispatcher
	publisher  *messaging.Publisher // optional; nil disables audit events
}

// NewAuthHandler creates a new authentication handler.
func NewAuthHandler(dispatcher *auth.Dispatcher, publisher *messaging.Publisher) *AuthHandler {
	return &AuthHandler{
		dispatcher: dispatcher,
		publisher:  publisher,
	}
}

// Serve handles every auth verb: the dispatcher resolves the method
// from the path, query string or body.
func (h *AuthHandler) Serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	req := auth.Request{
		Path:        r.URL.Path,
		QueryParams: flattenQuery(r),
		Body:        string(body),
		Headers:     r.Header,
	}

	resp := h.dispatcher.Handle(r.Context(), req)

	h.recordOutcome(r, req, resp)

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if resp.Body != "" {
		if strings.HasPrefix(resp.Body, "{") || strings.HasPrefix(resp.Body, "[") {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/plain")
		}
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// recordOutcome bumps metrics and publishes a best-effort audit event.
func (h *AuthHandler) recordOutcome(r *http.Request, req auth.Request, resp auth.Response) {
	verb := strings.TrimPrefix(strings.Trim(r.URL.Path, "/"), "auth/")
	outcome := "success"
	if resp.StatusCode >= 400 {
		outcome = "failure"
	}
	observability.AuthAttemptsTotal.WithLabelValues(verb, outcome).Inc()

	if h.publisher == nil || outcome != "success" {
		return
	}

	var routingKey string
	switch verb {
	case "login":
		routingKey = "user.login"
	case "signup":
		routingKey = "user.signup"
	case "logout":
		routingKey = "user.logout"
	default:
		return
	}

	event := &messaging.AuthEvent{
		Type:       routingKey,
		Username:   req.BodyField("username"),
		RemoteAddr: r.RemoteAddr,
	}

	// Publishing is decoupled from the response: a broker hiccup must
	// not fail an otherwise successful auth call.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.publisher.Publish(ctx, routingKey, event); err != nil {
		observability.FromContext(r.Context()).Warn("audit publish failed",
			"routing_key", routingKey, "error", err.Error())
	}
}

func flattenQuery(r *http.Request) map[string]string {
	params := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params
}
