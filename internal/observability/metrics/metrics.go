package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type requestLabel struct {
	method string
	path   string
	status string
}

// Recorder aggregates in-memory metrics counters and gauges for HTTP
// requests, webhook events, notification deliveries, collaborator calls, and
// live channel activity. It coordinates concurrent writers via a RWMutex
// while exposing a thread-safe gauge for active live connections.
type Recorder struct {
	mu              sync.RWMutex
	requestCount    map[requestLabel]uint64
	requestDuration map[requestLabel]time.Duration
	webhookEvents   map[string]uint64
	notifications   map[string]uint64
	remoteAttempts  map[string]uint64
	remoteFailures  map[string]uint64
	livePushes      uint64
	liveQueryErrors uint64
	activeLiveConns atomic.Int64
}

var defaultRecorder = New()

// New constructs an empty Recorder with initialized backing maps so callers
// can immediately record metrics without additional setup.
func New() *Recorder {
	return &Recorder{
		requestCount:    make(map[requestLabel]uint64),
		requestDuration: make(map[requestLabel]time.Duration),
		webhookEvents:   make(map[string]uint64),
		notifications:   make(map[string]uint64),
		remoteAttempts:  make(map[string]uint64),
		remoteFailures:  make(map[string]uint64),
	}
}

// Default returns the singleton Recorder shared across packages that do not
// require custom instrumentation pipelines.
func Default() *Recorder {
	return defaultRecorder
}

// ObserveRequest normalizes the request label set and accumulates totals for
// request count and cumulative duration by HTTP method, normalized path, and
// status code.
func (r *Recorder) ObserveRequest(method, path string, status int, duration time.Duration) {
	label := requestLabel{
		method: strings.ToUpper(method),
		path:   normalizePath(path),
		status: fmt.Sprintf("%d", status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// ObserveWebhookEvent records an inbound webhook event keyed by its
// classified kind. Unrecognized payloads land in the "unrecognized" bucket.
func (r *Recorder) ObserveWebhookEvent(kind string) {
	r.mu.Lock()
	r.webhookEvents[normalizeName(kind)]++
	r.mu.Unlock()
}

// ObserveNotification records a notification delivery outcome
// ("delivered", "failed", or "dropped").
func (r *Recorder) ObserveNotification(outcome string) {
	r.mu.Lock()
	r.notifications[normalizeName(outcome)]++
	r.mu.Unlock()
}

// ObserveRemoteCall records a collaborator call attempt keyed by operation
// name (e.g. "create_project"), and the failure when err is non-nil.
func (r *Recorder) ObserveRemoteCall(operation string, err error) {
	op := normalizeName(operation)
	r.mu.Lock()
	r.remoteAttempts[op]++
	if err != nil {
		r.remoteFailures[op]++
	}
	r.mu.Unlock()
}

// ObserveLivePush records a successful update push on a live connection.
func (r *Recorder) ObserveLivePush() {
	r.mu.Lock()
	r.livePushes++
	r.mu.Unlock()
}

// ObserveLiveQueryFailure records an update-query failure that was skipped by
// the live loop.
func (r *Recorder) ObserveLiveQueryFailure() {
	r.mu.Lock()
	r.liveQueryErrors++
	r.mu.Unlock()
}

// LiveConnectionOpened increments the active live connection gauge.
func (r *Recorder) LiveConnectionOpened() {
	r.activeLiveConns.Add(1)
}

// LiveConnectionClosed decrements the active live connection gauge, guarding
// against negative counts when concurrent closes race.
func (r *Recorder) LiveConnectionClosed() {
	for {
		current := r.activeLiveConns.Load()
		if current <= 0 {
			return
		}
		if r.activeLiveConns.CompareAndSwap(current, current-1) {
			return
		}
	}
}

// LivePushes returns the number of updates pushed over live channels.
func (r *Recorder) LivePushes() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.livePushes
}

// LiveQueryFailures returns the number of skipped update queries.
func (r *Recorder) LiveQueryFailures() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.liveQueryErrors
}

// ActiveLiveConnections exposes the current gauge of open live channels.
func (r *Recorder) ActiveLiveConnections() int64 {
	return r.activeLiveConns.Load()
}

// WebhookEventCounts returns a copy of the webhook event counters for testing
// and reporting purposes.
func (r *Recorder) WebhookEventCounts() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]uint64, len(r.webhookEvents))
	for k, v := range r.webhookEvents {
		out[k] = v
	}
	return out
}

// NotificationCounts returns a copy of the notification outcome counters.
func (r *Recorder) NotificationCounts() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]uint64, len(r.notifications))
	for k, v := range r.notifications {
		out[k] = v
	}
	return out
}

// Reset clears all counters and gauges on the recorder. It is intended for
// test setups.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestCount = make(map[requestLabel]uint64)
	r.requestDuration = make(map[requestLabel]time.Duration)
	r.webhookEvents = make(map[string]uint64)
	r.notifications = make(map[string]uint64)
	r.remoteAttempts = make(map[string]uint64)
	r.remoteFailures = make(map[string]uint64)
	r.livePushes = 0
	r.liveQueryErrors = 0
	r.activeLiveConns.Store(0)
}

// Handler exposes the Recorder as an http.Handler that writes Prometheus text
// exposition data with the appropriate content type.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		r.Write(w)
	})
}

// Write renders the Recorder's metrics in Prometheus text format, sorting
// label sets to provide stable output for scrapes and tests.
func (r *Recorder) Write(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requestLabels := r.sortedRequestLabels()
	webhookKinds := sortedKeys(r.webhookEvents)
	outcomes := sortedKeys(r.notifications)
	operations := sortedKeys(r.remoteAttempts)

	fmt.Fprintln(w, "# HELP reelgate_http_requests_total Total number of HTTP requests processed by the gateway")
	fmt.Fprintln(w, "# TYPE reelgate_http_requests_total counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "reelgate_http_requests_total{method=%q,path=%q,status=%q} %d\n", label.method, label.path, label.status, r.requestCount[label])
	}

	fmt.Fprintln(w, "# HELP reelgate_http_request_duration_seconds_sum Cumulative duration of HTTP requests in seconds")
	fmt.Fprintln(w, "# TYPE reelgate_http_request_duration_seconds_sum counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "reelgate_http_request_duration_seconds_sum{method=%q,path=%q,status=%q} %f\n", label.method, label.path, label.status, r.requestDuration[label].Seconds())
	}

	fmt.Fprintln(w, "# HELP reelgate_webhook_events_total Inbound webhook events by classified kind")
	fmt.Fprintln(w, "# TYPE reelgate_webhook_events_total counter")
	for _, kind := range webhookKinds {
		fmt.Fprintf(w, "reelgate_webhook_events_total{kind=%q} %d\n", kind, r.webhookEvents[kind])
	}

	fmt.Fprintln(w, "# HELP reelgate_notifications_total Notification deliveries by outcome")
	fmt.Fprintln(w, "# TYPE reelgate_notifications_total counter")
	for _, outcome := range outcomes {
		fmt.Fprintf(w, "reelgate_notifications_total{outcome=%q} %d\n", outcome, r.notifications[outcome])
	}

	fmt.Fprintln(w, "# HELP reelgate_remote_calls_total Collaborator calls attempted by operation")
	fmt.Fprintln(w, "# TYPE reelgate_remote_calls_total counter")
	for _, op := range operations {
		fmt.Fprintf(w, "reelgate_remote_calls_total{operation=%q} %d\n", op, r.remoteAttempts[op])
	}

	fmt.Fprintln(w, "# HELP reelgate_remote_call_failures_total Collaborator call failures by operation")
	fmt.Fprintln(w, "# TYPE reelgate_remote_call_failures_total counter")
	for _, op := range operations {
		fmt.Fprintf(w, "reelgate_remote_call_failures_total{operation=%q} %d\n", op, r.remoteFailures[op])
	}

	fmt.Fprintln(w, "# HELP reelgate_live_pushes_total Update frames pushed over live connections")
	fmt.Fprintln(w, "# TYPE reelgate_live_pushes_total counter")
	fmt.Fprintf(w, "reelgate_live_pushes_total %d\n", r.livePushes)

	fmt.Fprintln(w, "# HELP reelgate_live_query_failures_total Update queries skipped by the live loop")
	fmt.Fprintln(w, "# TYPE reelgate_live_query_failures_total counter")
	fmt.Fprintf(w, "reelgate_live_query_failures_total %d\n", r.liveQueryErrors)

	fmt.Fprintln(w, "# HELP reelgate_live_connections Current number of open live channels")
	fmt.Fprintln(w, "# TYPE reelgate_live_connections gauge")
	fmt.Fprintf(w, "reelgate_live_connections %d\n", r.activeLiveConns.Load())
}

func (r *Recorder) sortedRequestLabels() []requestLabel {
	labels := make([]requestLabel, 0, len(r.requestCount))
	for label := range r.requestCount {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].method != labels[j].method {
			return labels[i].method < labels[j].method
		}
		if labels[i].path != labels[j].path {
			return labels[i].path < labels[j].path
		}
		return labels[i].status < labels[j].status
	})
	return labels
}

func sortedKeys(values map[string]uint64) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func normalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if looksLikeIdentifier(part) {
			parts[i] = ":id"
		}
	}
	normalized := strings.Join(parts, "/")
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if strings.HasSuffix(normalized, "/") && len(normalized) > 1 {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized
}

func looksLikeIdentifier(segment string) bool {
	if len(segment) >= 16 {
		return true
	}
	digitCount := 0
	for _, r := range segment {
		if r >= '0' && r <= '9' {
			digitCount++
		}
	}
	return digitCount >= 3
}

func normalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
