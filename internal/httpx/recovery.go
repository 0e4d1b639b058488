package httpx

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery is the terminal catch-all: any panic escaping a route handler is
// logged with its stack and answered with a generic internal error, so the
// client never sees internals.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.ErrorContext(r.Context(), "Unhandled fault in request handler",
						"error", rec,
						"stack", string(debug.Stack()),
						"request_id", GetRequestID(r.Context()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error":"Lỗi server nội bộ"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
