package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestObserveRequestNormalizesPaths(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest("get", "/projects/8f3aa01bc2d94e55/upload", 200, 5*time.Millisecond)
	recorder.ObserveRequest("GET", "/projects/91c20fd7aa3b4c11/upload", 200, 5*time.Millisecond)

	var sb strings.Builder
	recorder.Write(&sb)
	output := sb.String()
	if !strings.Contains(output, `reelgate_http_requests_total{method="GET",path="/projects/:id/upload",status="200"} 2`) {
		t.Fatalf("expected normalized path counter, got:\n%s", output)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/":                          "/",
		"":                           "/",
		"/healthz":                   "/healthz",
		"/projects":                  "/projects",
		"/export/job-123":            "/export/:id",
		"/assets/abc123def/comment":  "/assets/:id/comment",
		"/sequences/folder-7/shots":  "/sequences/folder-7/shots",
		"/projects/0123456789abcdef": "/projects/:id",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestObserveWebhookAndNotificationCounters(t *testing.T) {
	recorder := New()
	recorder.ObserveWebhookEvent("comment")
	recorder.ObserveWebhookEvent("Comment")
	recorder.ObserveWebhookEvent("")
	recorder.ObserveNotification("delivered")
	recorder.ObserveNotification("failed")

	events := recorder.WebhookEventCounts()
	if events["comment"] != 2 || events["unknown"] != 1 {
		t.Fatalf("unexpected webhook counts %v", events)
	}
	outcomes := recorder.NotificationCounts()
	if outcomes["delivered"] != 1 || outcomes["failed"] != 1 {
		t.Fatalf("unexpected notification counts %v", outcomes)
	}
}

func TestObserveRemoteCallTracksFailures(t *testing.T) {
	recorder := New()
	recorder.ObserveRemoteCall("create_project", nil)
	recorder.ObserveRemoteCall("create_project", errors.New("boom"))

	var sb strings.Builder
	recorder.Write(&sb)
	output := sb.String()
	if !strings.Contains(output, `reelgate_remote_calls_total{operation="create_project"} 2`) {
		t.Fatalf("expected attempt counter, got:\n%s", output)
	}
	if !strings.Contains(output, `reelgate_remote_call_failures_total{operation="create_project"} 1`) {
		t.Fatalf("expected failure counter, got:\n%s", output)
	}
}

func TestLiveConnectionGaugeNeverGoesNegative(t *testing.T) {
	recorder := New()
	recorder.LiveConnectionOpened()
	recorder.LiveConnectionClosed()
	recorder.LiveConnectionClosed()
	if got := recorder.ActiveLiveConnections(); got != 0 {
		t.Fatalf("unexpected gauge %d", got)
	}
}

func TestLiveCountersAndReset(t *testing.T) {
	recorder := New()
	recorder.ObserveLivePush()
	recorder.ObserveLivePush()
	recorder.ObserveLiveQueryFailure()
	if recorder.LivePushes() != 2 || recorder.LiveQueryFailures() != 1 {
		t.Fatalf("unexpected counters %d %d", recorder.LivePushes(), recorder.LiveQueryFailures())
	}

	recorder.Reset()
	if recorder.LivePushes() != 0 || recorder.LiveQueryFailures() != 0 {
		t.Fatal("expected counters to reset")
	}
}

func TestHandlerServesExposition(t *testing.T) {
	recorder := New()
	recorder.ObserveRequest("GET", "/healthz", 200, time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(rec.Body.String(), "reelgate_live_connections 0") {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}
}

func TestRecorderConcurrentUse(t *testing.T) {
	recorder := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				recorder.ObserveRequest("GET", "/healthz", 200, time.Microsecond)
				recorder.ObserveWebhookEvent("comment")
				recorder.ObserveLivePush()
			}
		}()
	}
	wg.Wait()

	if recorder.WebhookEventCounts()["comment"] != 800 {
		t.Fatalf("unexpected count %d", recorder.WebhookEventCounts()["comment"])
	}
	if recorder.LivePushes() != 800 {
		t.Fatalf("unexpected pushes %d", recorder.LivePushes())
	}
}
