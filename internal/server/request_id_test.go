package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"reelgate/internal/observability/logging"
)

func TestRequestIDMiddlewareGeneratesAndStoresID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = logging.RequestIDFromContext(r.Context())
	})
	handler := requestIDMiddlewareWithGenerator(func() string { return "generated-1" }, next)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "generated-1" {
		t.Fatalf("unexpected context request ID %q", seen)
	}
	if got := rec.Header().Get("X-Request-Id"); got != "generated-1" {
		t.Fatalf("unexpected header %q", got)
	}
}

func TestRequestIDMiddlewareKeepsCallerID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := requestIDMiddlewareWithGenerator(func() string { return "generated-1" }, next)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "caller-7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "caller-7" {
		t.Fatalf("unexpected header %q", got)
	}
}

func TestNewRequestIDIsUnique(t *testing.T) {
	a, b := newRequestID(), newRequestID()
	if a == "" || a == b {
		t.Fatalf("expected distinct IDs, got %q and %q", a, b)
	}
}
