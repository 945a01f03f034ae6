package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Auth metrics
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of auth verb invocations by outcome",
		},
		[]string{"verb", "outcome"},
	)

	CSRFFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_csrf_failures_total",
			Help: "Total number of rejected CSRF double-submit checks",
		},
	)

	SessionDecryptionFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_session_decryption_failures_total",
			Help: "Total number of session cookies that failed to decrypt",
		},
	)

	// Webhook metrics
	WebhookVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_verifications_total",
			Help: "Total number of webhook signature verifications by outcome",
		},
		[]string{"outcome"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"operation", "table"},
	)
)
