// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ChatMessagesTotal counts chat turns by resolved intent and answer source.
	ChatMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_chat_messages_total",
			Help: "Chat messages handled, by intent and source",
		},
		[]string{"intent", "source"},
	)

	// ChatLanguagesTotal counts detected guest languages.
	ChatLanguagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_chat_languages_total",
			Help: "Detected languages of chat messages",
		},
		[]string{"language"},
	)

	// LLMCompletionDuration tracks completion API latency.
	LLMCompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "Completion API call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// BackendAvailable reports 1 when a backing store is reachable.
	BackendAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "concierge_backend_available",
			Help: "Backend availability (1 reachable, 0 fallback mode)",
		},
		[]string{"backend"},
	)

	// FallbacksTotal counts operations served by a fallback path.
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_fallbacks_total",
			Help: "Operations served by the fallback path",
		},
		[]string{"backend"},
	)

	// BookingOperationsTotal counts booking service operations.
	BookingOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_booking_operations_total",
			Help: "Booking operations by kind and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// ConversationsEvicted counts sessions removed by the sweeper.
	ConversationsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "concierge_conversations_evicted_total",
			Help: "Conversations evicted by the periodic sweep",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCompletion records metrics for a completion API call.
func RecordCompletion(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMCompletionDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordChat records the outcome of one chat turn.
func RecordChat(intent, source, language string) {
	ChatMessagesTotal.WithLabelValues(intent, source).Inc()
	ChatLanguagesTotal.WithLabelValues(language).Inc()
}

// SetBackendAvailable updates the availability gauge for a backend.
func SetBackendAvailable(backend string, available bool) {
	v := 0.0
	if available {
		v = 1
	}
	BackendAvailable.WithLabelValues(backend).Set(v)
}

// RecordFallback counts one operation served by the fallback path.
func RecordFallback(backend string) {
	FallbacksTotal.WithLabelValues(backend).Inc()
}

// RecordBooking counts a booking operation outcome.
func RecordBooking(operation, outcome string) {
	BookingOperationsTotal.WithLabelValues(operation, outcome).Inc()
}
