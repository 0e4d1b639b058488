package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request identifier on responses and on the
// outbound call to the bot engine.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID assigns a fresh identifier to every inbound request, stores it in
// the request context and logs the request at entry. The identifier is always
// server-generated; a client-supplied X-Request-ID is not trusted.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.New().String()
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)

			w.Header().Set(RequestIDHeader, id)

			slog.InfoContext(ctx, "HTTP request received",
				"http_method", r.Method,
				"http_path", r.URL.Path,
				"request_id", id,
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the request identifier stored by the RequestID
// middleware, or "" when the middleware did not run.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
