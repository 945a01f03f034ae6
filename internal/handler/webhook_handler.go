package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"authgate/internal/messaging"
	"authgate/internal/observability"
	"authgate/internal/webhook"
)

// WebhookHandler verifies HMAC-signed webhook requests. It is
// independent of sessions: trust comes from the signature header
// computed over the raw body.
type WebhookHandler struct {
	secret    string
	header    string
	publisher *messaging.Publisher // optional; nil disables audit events
}

// NewWebhookHandler creates a webhook verification handler. header
// names the request header carrying the t=...,v1=... envelope.
func NewWebhookHandler(secret, header string, publisher *messaging.Publisher) *WebhookHandler {
	return &WebhookHandler{secret: secret, header: header, publisher: publisher}
}

// Verify checks the signature on the raw request body and responds 204
// on success, 403 on any verification failure.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := webhook.Verify(body, r.Header.Get(h.header), h.secret, nil); err != nil {
		observability.WebhookVerificationsTotal.WithLabelValues("rejected").Inc()
		observability.FromContext(r.Context()).Warn("webhook signature rejected",
			"path", r.URL.Path, "remote_addr", r.RemoteAddr)
		h.auditRejection(r)
		http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
		return
	}

	observability.WebhookVerificationsTotal.WithLabelValues("accepted").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// auditRejection publishes a best-effort webhook.rejected event.
func (h *WebhookHandler) auditRejection(r *http.Request) {
	if h.publisher == nil {
		return
	}

	event := &messaging.AuthEvent{
		Type:       "webhook.rejected",
		RemoteAddr: r.RemoteAddr,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.publisher.Publish(ctx, "webhook.rejected", event); err != nil {
		observability.FromContext(r.Context()).Warn("audit publish failed",
			"routing_key", "webhook.rejected", "error", err.Error())
	}
}
