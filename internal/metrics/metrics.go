package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	rasaRequestsTotal   metric.Int64Counter
	rasaRequestDuration metric.Float64Histogram

	persistenceFailuresTotal metric.Int64Counter
}

// NewMetrics creates and initializes all metrics
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_server_latency_ms",
		metric.WithDescription("HTTP request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	rasaRequestsTotal, err := meter.Int64Counter(
		"rasa_requests_total",
		metric.WithDescription("Total bot engine webhook calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	rasaRequestDuration, err := meter.Float64Histogram(
		"rasa_request_duration_ms",
		metric.WithDescription("Bot engine webhook call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	persistenceFailuresTotal, err := meter.Int64Counter(
		"conversation_persistence_failures_total",
		metric.WithDescription("Conversation records that could not be written"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		httpRequestsTotal:        httpRequestsTotal,
		httpRequestDuration:      httpRequestDuration,
		rasaRequestsTotal:        rasaRequestsTotal,
		rasaRequestDuration:      rasaRequestDuration,
		persistenceFailuresTotal: persistenceFailuresTotal,
	}, nil
}

// HTTPMetricsMiddleware returns middleware for collecting HTTP metrics
func (m *Metrics) HTTPMetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create response writer to capture status code
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			// Process request
			next.ServeHTTP(rw, r)

			durationMs := float64(time.Since(start).Nanoseconds()) / 1e6
			attrs := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("path", r.URL.Path),
				attribute.String("status_code", strconv.Itoa(rw.statusCode)),
			)

			m.httpRequestsTotal.Add(r.Context(), 1, attrs)
			m.httpRequestDuration.Record(r.Context(), durationMs, attrs)
		})
	}
}

// RecordRasaRequest records one bot engine call and its outcome
func (m *Metrics) RecordRasaRequest(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	m.rasaRequestsTotal.Add(ctx, 1, attrs)
	m.rasaRequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordPersistenceFailure records a conversation record write that was
// swallowed as best-effort
func (m *Metrics) RecordPersistenceFailure(ctx context.Context, reason string) {
	m.persistenceFailuresTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

// responseWriter captures the status code for metrics
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
