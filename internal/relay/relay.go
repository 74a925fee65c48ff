// Package relay turns inbound webhook events from the remote media service
// into fire-and-forget notification tasks. Unrecognized events are
// deliberately not failures: the webhook sender always receives success so it
// never retries or alarms.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"reelgate/internal/notify"
	"reelgate/internal/observability/metrics"
)

// Config configures a Relay.
type Config struct {
	Queue   notify.Queue
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Relay classifies webhook payloads and schedules notification tasks on the
// queue without blocking the caller's acknowledgement.
type Relay struct {
	queue   notify.Queue
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// New initialises a relay using the provided configuration.
func New(cfg Config) *Relay {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Default()
	}
	return &Relay{queue: cfg.Queue, logger: logger, metrics: recorder}
}

// Process handles one raw webhook payload. It never returns an error: the
// outcome of classification and scheduling is observed through logs and
// metrics only, so the HTTP handler can acknowledge unconditionally.
func (r *Relay) Process(ctx context.Context, payload []byte) {
	var event InboundEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		r.metrics.ObserveWebhookEvent(string(KindUnrecognized))
		r.logger.Debug("ignoring undecodable webhook payload", "error", err)
		return
	}

	notification, kind, ok := Classify(event)
	r.metrics.ObserveWebhookEvent(string(kind))
	if !ok {
		r.logger.Debug("ignoring webhook event", "type", event.Type)
		return
	}

	task := notify.Task{
		RecipientID: notification.RecipientID,
		Message:     notification.Message,
		CreatedAt:   time.Now().UTC(),
	}
	if r.queue == nil {
		r.metrics.ObserveNotification("dropped")
		r.logger.Warn("notification queue unavailable, dropping task", "recipient_id", task.RecipientID)
		return
	}
	if err := r.queue.Publish(ctx, task); err != nil {
		r.metrics.ObserveNotification("dropped")
		r.logger.Error("failed to schedule notification", "recipient_id", task.RecipientID, "error", err)
		return
	}
	r.logger.Debug("notification scheduled", "kind", string(kind), "recipient_id", task.RecipientID)
}
