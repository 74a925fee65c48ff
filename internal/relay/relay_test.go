package relay_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"reelgate/internal/notify"
	"reelgate/internal/observability/metrics"
	"reelgate/internal/relay"
)

type captureQueue struct {
	mu      sync.Mutex
	tasks   []notify.Task
	failErr error
}

func (q *captureQueue) Publish(_ context.Context, task notify.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failErr != nil {
		return q.failErr
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *captureQueue) Subscribe() notify.Subscription {
	return nil
}

func (q *captureQueue) Tasks() []notify.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]notify.Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}

func TestProcessCommentCreated(t *testing.T) {
	queue := &captureQueue{}
	r := relay.New(relay.Config{Queue: queue, Metrics: metrics.New()})

	payload := []byte(`{"type":"comment.created","resource":{"asset_id":"asset-9","text":"Love this take","user_id":"user-3"}}`)
	r.Process(context.Background(), payload)

	tasks := queue.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].RecipientID != "user-3" {
		t.Fatalf("unexpected recipient %q", tasks[0].RecipientID)
	}
	if tasks[0].Message != "New comment on asset asset-9: Love this take" {
		t.Fatalf("unexpected message %q", tasks[0].Message)
	}
	if tasks[0].CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestProcessReviewUpdated(t *testing.T) {
	queue := &captureQueue{}
	r := relay.New(relay.Config{Queue: queue, Metrics: metrics.New()})

	payload := []byte(`{"type":"review.updated","resource":{"asset_id":"asset-2","status":"approved","user_id":"user-7"}}`)
	r.Process(context.Background(), payload)

	tasks := queue.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Message != "Review status updated for asset asset-2: approved" {
		t.Fatalf("unexpected message %q", tasks[0].Message)
	}
}

func TestProcessIgnoresUnrecognizedPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"unknown type", `{"type":"asset.deleted","resource":{"asset_id":"a"}}`},
		{"missing resource fields", `{"type":"comment.created","resource":{"asset_id":"a"}}`},
		{"resource wrong shape", `{"type":"comment.created","resource":"nope"}`},
		{"malformed json", `{"type": comment}`},
		{"empty body", ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			queue := &captureQueue{}
			recorder := metrics.New()
			r := relay.New(relay.Config{Queue: queue, Metrics: recorder})

			r.Process(context.Background(), []byte(tc.payload))

			if tasks := queue.Tasks(); len(tasks) != 0 {
				t.Fatalf("expected no tasks, got %d", len(tasks))
			}
			counts := recorder.WebhookEventCounts()
			if counts[string(relay.KindUnrecognized)] != 1 {
				t.Fatalf("expected 1 unrecognized event, got %v", counts)
			}
		})
	}
}

func TestProcessCountsRecognizedKinds(t *testing.T) {
	queue := &captureQueue{}
	recorder := metrics.New()
	r := relay.New(relay.Config{Queue: queue, Metrics: recorder})

	r.Process(context.Background(), []byte(`{"type":"comment.created","resource":{"asset_id":"a","text":"t","user_id":"u"}}`))
	r.Process(context.Background(), []byte(`{"type":"review.updated","resource":{"asset_id":"a","status":"rejected","user_id":"u"}}`))

	counts := recorder.WebhookEventCounts()
	if counts[string(relay.KindCommentCreated)] != 1 || counts[string(relay.KindReviewUpdated)] != 1 {
		t.Fatalf("unexpected event counts %v", counts)
	}
}

func TestProcessQueueFailureDropsTask(t *testing.T) {
	queue := &captureQueue{failErr: errors.New("queue full")}
	recorder := metrics.New()
	r := relay.New(relay.Config{Queue: queue, Metrics: recorder})

	r.Process(context.Background(), []byte(`{"type":"comment.created","resource":{"asset_id":"a","text":"t","user_id":"u"}}`))

	counts := recorder.NotificationCounts()
	if counts["dropped"] != 1 {
		t.Fatalf("expected dropped notification, got %v", counts)
	}
}

func TestProcessWithoutQueue(t *testing.T) {
	recorder := metrics.New()
	r := relay.New(relay.Config{Metrics: recorder})

	r.Process(context.Background(), []byte(`{"type":"comment.created","resource":{"asset_id":"a","text":"t","user_id":"u"}}`))

	counts := recorder.NotificationCounts()
	if counts["dropped"] != 1 {
		t.Fatalf("expected dropped notification, got %v", counts)
	}
}
