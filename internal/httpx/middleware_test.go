package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	var seen []string

	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, GetRequestID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))

	var headers []string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		// A client-supplied id must not be trusted
		req.Header.Set(RequestIDHeader, "spoofed")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		headers = append(headers, rec.Header().Get(RequestIDHeader))
	}

	if len(seen) != 2 {
		t.Fatalf("expected 2 handled requests, got %d", len(seen))
	}
	for i, id := range seen {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("request %d: id %q is not a valid uuid: %v", i, id, err)
		}
		if id == "spoofed" {
			t.Errorf("request %d: client-supplied id was trusted", i)
		}
		if headers[i] != id {
			t.Errorf("request %d: response header %q does not match context id %q", i, headers[i], id)
		}
	}
	if seen[0] == seen[1] {
		t.Error("expected distinct ids across requests")
	}
}

func TestGetRequestID_WithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Lỗi server nội bộ"}` {
		t.Errorf("unexpected body: %s", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json content type, got %q", ct)
	}
}

func TestCORS(t *testing.T) {
	t.Run("empty origin defaults to permissive", func(t *testing.T) {
		handler := CORS("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected '*', got %q", got)
		}
	})

	t.Run("configured origin is passed through", func(t *testing.T) {
		handler := CORS("https://front.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://front.example.com" {
			t.Errorf("expected configured origin, got %q", got)
		}
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		called := false
		handler := CORS("*")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", rec.Code)
		}
		if called {
			t.Error("expected preflight not to reach the next handler")
		}
	})
}

func TestLogger_PassesStatusThrough(t *testing.T) {
	handler := Logger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{
			name:     "X-Forwarded-For single",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.7"},
			remote:   "10.0.0.1:1234",
			expected: "203.0.113.7",
		},
		{
			name:     "X-Forwarded-For chain uses first hop",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.7,10.0.0.2"},
			remote:   "10.0.0.1:1234",
			expected: "203.0.113.7",
		},
		{
			name:     "X-Real-IP fallback",
			headers:  map[string]string{"X-Real-IP": "203.0.113.9"},
			remote:   "10.0.0.1:1234",
			expected: "203.0.113.9",
		},
		{
			name:     "RemoteAddr fallback",
			remote:   "10.0.0.1:1234",
			expected: "10.0.0.1:1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
