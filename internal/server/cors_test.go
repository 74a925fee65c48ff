package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newCORSHandler(t *testing.T, origins ...string) http.Handler {
	t.Helper()
	policy, err := newCORSPolicy(CORSConfig{AllowedOrigins: origins})
	if err != nil {
		t.Fatalf("newCORSPolicy: %v", err)
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return corsMiddleware(policy, nil, next)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	handler := newCORSHandler(t, "https://review.example.com")
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Origin", "https://review.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://review.example.com" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if rec.Header().Get("Vary") != "Origin" {
		t.Fatal("expected Vary: Origin")
	}
}

func TestCORSBlocksUnknownOrigin(t *testing.T) {
	handler := newCORSHandler(t, "https://review.example.com")
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("blocked response must not carry CORS headers")
	}
}

func TestCORSAllowsSameOriginWithoutConfiguration(t *testing.T) {
	handler := newCORSHandler(t)
	req := httptest.NewRequest(http.MethodGet, "http://gateway.example.com/projects", nil)
	req.Host = "gateway.example.com"
	req.Header.Set("Origin", "http://gateway.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestCORSPassThroughWithoutOrigin(t *testing.T) {
	handler := newCORSHandler(t, "https://review.example.com")
	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("non-CORS request must not carry CORS headers")
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newCORSHandler(t, "https://review.example.com")
	req := httptest.NewRequest(http.MethodOptions, "/projects", nil)
	req.Header.Set("Origin", "https://review.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Fatalf("unexpected allow-methods %q", got)
	}
	if rec.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatal("expected preflight max age")
	}
}

func TestNormalizeOrigin(t *testing.T) {
	cases := []struct {
		in      string
		out     string
		wantErr bool
	}{
		{"https://Review.Example.com", "https://review.example.com", false},
		{" http://localhost:3000 ", "http://localhost:3000", false},
		{"", "", false},
		{"review.example.com", "", true},
		{"://bad", "", true},
	}
	for _, tc := range cases {
		got, err := normalizeOrigin(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("normalizeOrigin(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("normalizeOrigin(%q): %v", tc.in, err)
		}
		if got != tc.out {
			t.Fatalf("normalizeOrigin(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
