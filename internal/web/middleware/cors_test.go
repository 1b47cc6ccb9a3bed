package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://dash.example.com, https://ops.example.com")

	handler := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"localhost with port", "http://localhost:5173", true},
		{"loopback ip", "http://127.0.0.1:8090", true},
		{"listed origin", "https://ops.example.com", true},
		{"unlisted origin", "https://evil.example.com", false},
		{"localhost lookalike", "http://localhost.evil.com", false},
		{"no origin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("expected origin %q to be allowed, got %q", tt.origin, got)
			}
			if !tt.allowed && got != "" {
				t.Errorf("expected origin %q to be rejected, got %q", tt.origin, got)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/events", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if called {
		t.Error("preflight must not reach the handler")
	}
}
