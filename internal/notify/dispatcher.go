package notify

import (
	"context"
	"log/slog"
	"time"

	"reelgate/internal/observability/metrics"
)

// Sender delivers a single notification task. Implementations are expected to
// be best-effort: a returned error is observed and the task is dropped.
type Sender interface {
	Send(ctx context.Context, task Task) error
}

// LogSender writes each delivery through the structured logger. It stands in
// for a real email/push integration and never fails.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, task Task) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("sending notification",
		"recipient_id", task.RecipientID,
		"message", task.Message)
	return nil
}

// DispatcherConfig configures a notification Dispatcher.
type DispatcherConfig struct {
	Queue   Queue
	Sender  Sender
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	// SendTimeout bounds a single delivery attempt. Zero applies a default.
	SendTimeout time.Duration
}

// Dispatcher consumes the notification queue and hands each task to the
// configured sender. Delivery failures are logged and counted but never
// propagate: tasks are fire-and-forget by contract.
type Dispatcher struct {
	queue       Queue
	sender      Sender
	logger      *slog.Logger
	metrics     *metrics.Recorder
	sendTimeout time.Duration
}

// NewDispatcher initialises a dispatcher using the provided configuration.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sender := cfg.Sender
	if sender == nil {
		sender = LogSender{Logger: logger}
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Default()
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		queue:       cfg.Queue,
		sender:      sender,
		logger:      logger,
		metrics:     recorder,
		sendTimeout: timeout,
	}
}

// Run blocks until the context is cancelled, delivering tasks as they arrive.
// It always returns nil so an errgroup supervising it does not treat shutdown
// as a failure.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.queue == nil {
		return nil
	}
	sub := d.queue.Subscribe()
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case task, ok := <-sub.Tasks():
			if !ok {
				return nil
			}
			d.deliver(ctx, task)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, task Task) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	if err := d.sender.Send(sendCtx, task); err != nil {
		d.metrics.ObserveNotification("failed")
		d.logger.Error("notification delivery failed",
			"recipient_id", task.RecipientID,
			"error", err)
		return
	}
	d.metrics.ObserveNotification("delivered")
}
