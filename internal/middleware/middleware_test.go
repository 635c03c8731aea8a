package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jewelry/jewelry-api/internal/pkg/errorhandler"
)

func TestRequestIDKeepsIncomingHeader(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = errorhandler.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != "abc-123" || w.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("expected request id to propagate, got ctx=%q header=%q", seen, w.Header().Get("X-Request-ID"))
	}
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	w := httptest.NewRecorder()
	RequestID(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if len(w.Header().Get("X-Request-ID")) != 36 {
		t.Fatalf("expected generated uuid, got %q", w.Header().Get("X-Request-ID"))
	}
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestCORSHandler(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		wantOrigin  string
		credentials bool
	}{
		{"listed origin", []string{"http://shop.local"}, "http://shop.local", "http://shop.local", true},
		{"unlisted origin", []string{"http://shop.local"}, "http://evil.local", "", false},
		{"wildcard", []string{"*"}, "http://any.local", "*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORSHandler(tt.allowed)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/jewelry", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("allow-origin: expected %q, got %q", tt.wantOrigin, got)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tt.credentials {
				t.Fatalf("allow-credentials: expected %v, got %v", tt.credentials, got)
			}
		})
	}
}
