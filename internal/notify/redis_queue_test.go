package notify_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelgate/internal/notify"
	"reelgate/internal/testsupport/redisstub"
)

func TestRedisQueueRoundTrip(t *testing.T) {
	server, err := redisstub.Start(redisstub.Options{})
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	defer server.Close()

	queue, err := notify.NewRedisQueue(notify.RedisQueueConfig{
		Addr:         server.Addr(),
		Stream:       "test:notifications",
		Group:        "test-workers",
		BlockTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewRedisQueue: %v", err)
	}

	sub := queue.Subscribe()
	defer sub.Close()

	task := notify.Task{RecipientID: "user-5", Message: "Review status updated", CreatedAt: time.Now().UTC()}
	if err := queue.Publish(context.Background(), task); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-sub.Tasks():
		if got.RecipientID != task.RecipientID || got.Message != task.Message {
			t.Fatalf("unexpected task %+v", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for task")
	}
}

func TestRedisQueueCloseWhileDeliveryIsBlocked(t *testing.T) {
	server, err := redisstub.Start(redisstub.Options{})
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	defer server.Close()

	queue, err := notify.NewRedisQueue(notify.RedisQueueConfig{
		Addr:         server.Addr(),
		Buffer:       1,
		BlockTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewRedisQueue: %v", err)
	}

	sub := queue.Subscribe()
	// Publish more tasks than the channel buffers so the consumer loop
	// parks on a send, then close the subscription out from under it.
	for i := 0; i < 4; i++ {
		if err := queue.Publish(context.Background(), notify.Task{RecipientID: "user-1", Message: "m"}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	waitUntil(t, 3*time.Second, func() bool {
		return len(sub.Tasks()) == 1
	})

	sub.Close()
	sub.Close()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-sub.Tasks():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("task channel never closed after Close")
		}
	}
}

func TestRedisQueueWithPassword(t *testing.T) {
	server, err := redisstub.Start(redisstub.Options{Password: "sekret"})
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	defer server.Close()

	queue, err := notify.NewRedisQueue(notify.RedisQueueConfig{
		Addr:         server.Addr(),
		Password:     "sekret",
		BlockTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewRedisQueue: %v", err)
	}

	sub := queue.Subscribe()
	defer sub.Close()

	if err := queue.Publish(context.Background(), notify.Task{RecipientID: "user-1", Message: "m"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case <-sub.Tasks():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for task")
	}
}

func TestRedisQueueWithTLS(t *testing.T) {
	server, err := redisstub.Start(redisstub.Options{EnableTLS: true})
	if err != nil {
		t.Fatalf("start redis stub: %v", err)
	}
	defer server.Close()

	caPath := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caPath, server.CertPEM(), 0o600); err != nil {
		t.Fatalf("write ca: %v", err)
	}

	queue, err := notify.NewRedisQueue(notify.RedisQueueConfig{
		Addr:         server.Addr(),
		BlockTimeout: 100 * time.Millisecond,
		TLS: notify.RedisTLSConfig{
			CAFile:     caPath,
			ServerName: "127.0.0.1",
		},
	})
	if err != nil {
		t.Fatalf("NewRedisQueue: %v", err)
	}

	sub := queue.Subscribe()
	defer sub.Close()

	if err := queue.Publish(context.Background(), notify.Task{RecipientID: "user-1", Message: "m"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case <-sub.Tasks():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for task")
	}
}

func TestRedisQueueRequiresAddr(t *testing.T) {
	if _, err := notify.NewRedisQueue(notify.RedisQueueConfig{}); err == nil {
		t.Fatal("expected error without addr")
	}
}
