package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupQueue(t *testing.T) (*Queue, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewQueue(client, nil), client
}

func TestEnqueueDequeueRoundtrip(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	payload := StorageCleanupPayload{
		VideoID: 42,
		Keys:    []string{"videos/a.mp4", "processed/a/master.m3u8"},
	}
	if err := q.EnqueueStorageCleanup(ctx, payload); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	job, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job == nil {
		t.Fatal("expected a job")
	}
	if job.Type != JobTypeStorageCleanup {
		t.Fatalf("expected type %s, got %s", JobTypeStorageCleanup, job.Type)
	}

	var got StorageCleanupPayload
	if err := json.Unmarshal(job.Payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.VideoID != 42 || len(got.Keys) != 2 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestEnqueueSkipsEmptyKeys(t *testing.T) {
	q, client := setupQueue(t)
	ctx := context.Background()

	if err := q.EnqueueStorageCleanup(ctx, StorageCleanupPayload{VideoID: 1}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	n, err := client.LLen(ctx, QueueStorageCleanup).Result()
	if err != nil {
		t.Fatalf("llen: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty queue, got %d jobs", n)
	}
}

func TestRetryMovesToDLQ(t *testing.T) {
	q, client := setupQueue(t)
	ctx := context.Background()

	job := &Job{ID: "j1", Type: JobTypeStorageCleanup, Payload: json.RawMessage(`{}`)}

	// First retries go back to the work queue.
	for i := 0; i < MaxRetries-1; i++ {
		if err := q.Retry(ctx, job); err != nil {
			t.Fatalf("retry %d: %v", i, err)
		}
		n, _ := client.LLen(ctx, QueueStorageCleanup).Result()
		if n != 1 {
			t.Fatalf("retry %d: expected job in work queue, got len %d", i, n)
		}
		client.Del(ctx, QueueStorageCleanup)
	}

	// Final retry lands in the DLQ.
	if err := q.Retry(ctx, job); err != nil {
		t.Fatalf("final retry: %v", err)
	}
	n, _ := client.LLen(ctx, QueueDLQ).Result()
	if n != 1 {
		t.Fatalf("expected job in DLQ, got len %d", n)
	}
	n, _ = client.LLen(ctx, QueueStorageCleanup).Result()
	if n != 0 {
		t.Fatalf("expected empty work queue, got len %d", n)
	}
}
