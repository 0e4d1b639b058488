package httpx

import (
	"log/slog"
	"net/http"
)

type statusAwareResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusAwareResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusAwareResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func Logger() func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			saw := &statusAwareResponseWriter{ResponseWriter: w}

			defer func() {
				logAttrs := []any{
					"http_method", r.Method,
					"http_path", r.URL.Path,
					"http_status", saw.status,
					"request_id", GetRequestID(r.Context()),
				}

				// Add user agent if available
				if userAgent := r.Header.Get("User-Agent"); userAgent != "" {
					logAttrs = append(logAttrs, "http_user_agent", userAgent)
				}

				// Add remote address
				logAttrs = append(logAttrs, "http_remote_addr", r.RemoteAddr)

				if saw.status/100 == 5 {
					slog.ErrorContext(r.Context(), "HTTP request failed", logAttrs...)
				} else {
					slog.InfoContext(r.Context(), "HTTP request complete", logAttrs...)
				}
			}()

			handler.ServeHTTP(saw, r)
		})
	}
}
