package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"reelgate/internal/observability/metrics"
)

// ErrNoSubscribers reports that a published task reached nobody. Callers that
// treat delivery as fire-and-forget map it to their dropped counter.
var ErrNoSubscribers = errors.New("no active subscribers")

// Queue fan-outs notification tasks to interested subscribers. The interface
// is intentionally minimal to support in-memory deployments and fakes used in
// tests.
type Queue interface {
	Publish(ctx context.Context, task Task) error
	Subscribe() Subscription
}

// Subscription represents an active task stream.
type Subscription interface {
	Tasks() <-chan Task
	Close()
}

// MemoryQueueConfig configures the in-memory fan-out queue.
type MemoryQueueConfig struct {
	Buffer  int
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// NewMemoryQueue initialises an in-memory fan-out queue suitable for tests
// and single-process deployments. Tasks that cannot be handed to any
// subscriber are dropped, and every drop is observed.
func NewMemoryQueue(cfg MemoryQueueConfig) Queue {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 32
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Default()
	}
	return &memoryQueue{
		subs:    make(map[*memorySubscription]struct{}),
		buffer:  cfg.Buffer,
		logger:  logger,
		metrics: recorder,
	}
}

type memoryQueue struct {
	mu      sync.RWMutex
	subs    map[*memorySubscription]struct{}
	buffer  int
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func (q *memoryQueue) Publish(ctx context.Context, task Task) error {
	if task.RecipientID == "" {
		return errors.New("task recipient is required")
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if len(q.subs) == 0 {
		return ErrNoSubscribers
	}
	for sub := range q.subs {
		select {
		case sub.ch <- task:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Drop instead of blocking to keep the webhook path
			// responsive. Consumers are expected to drain promptly.
			q.metrics.ObserveNotification("dropped")
			q.logger.Warn("subscriber buffer full, dropping task",
				"recipient_id", task.RecipientID)
		}
	}
	return nil
}

func (q *memoryQueue) Subscribe() Subscription {
	sub := &memorySubscription{
		queue: q,
		ch:    make(chan Task, q.buffer),
	}
	q.mu.Lock()
	q.subs[sub] = struct{}{}
	q.mu.Unlock()
	return sub
}

type memorySubscription struct {
	once  sync.Once
	queue *memoryQueue
	ch    chan Task
}

func (s *memorySubscription) Tasks() <-chan Task {
	return s.ch
}

func (s *memorySubscription) Close() {
	s.once.Do(func() {
		s.queue.mu.Lock()
		delete(s.queue.subs, s)
		s.queue.mu.Unlock()
		close(s.ch)
	})
}
