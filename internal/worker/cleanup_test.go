package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/haidang029kg/ytb-api/pkg/queue"
)

type fakeStorage struct {
	deleted []string
	fail    map[string]error
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	if err, ok := f.fail[key]; ok {
		return err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func cleanupJob(t *testing.T, payload queue.StorageCleanupPayload) *queue.Job {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return &queue.Job{ID: "job-1", Type: queue.JobTypeStorageCleanup, Payload: body, CreatedAt: time.Now()}
}

func TestProcessDeletesAllKeys(t *testing.T) {
	st := &fakeStorage{}
	p := NewCleanupProcessor(nil, st, nil)

	job := cleanupJob(t, queue.StorageCleanupPayload{VideoID: 1, Keys: []string{"videos/a.mp4", "thumbnails/b.jpg"}})
	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(st.deleted) != 2 {
		t.Fatalf("deleted = %v", st.deleted)
	}
}

func TestProcessPartialFailureReturnsError(t *testing.T) {
	boom := errors.New("s3 down")
	st := &fakeStorage{fail: map[string]error{"videos/a.mp4": boom}}
	p := NewCleanupProcessor(nil, st, nil)

	job := cleanupJob(t, queue.StorageCleanupPayload{VideoID: 1, Keys: []string{"videos/a.mp4", "thumbnails/b.jpg"}})
	err := p.Process(context.Background(), job)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped s3 error", err)
	}
	// The reachable key is still deleted.
	if len(st.deleted) != 1 || st.deleted[0] != "thumbnails/b.jpg" {
		t.Fatalf("deleted = %v", st.deleted)
	}
}

func TestProcessSkipsUnknownTypeAndBadPayload(t *testing.T) {
	st := &fakeStorage{}
	p := NewCleanupProcessor(nil, st, nil)

	if err := p.Process(context.Background(), &queue.Job{ID: "j", Type: "mystery"}); err != nil {
		t.Fatalf("unknown type: %v", err)
	}
	if err := p.Process(context.Background(), &queue.Job{ID: "j", Type: queue.JobTypeStorageCleanup, Payload: []byte("{")}); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if len(st.deleted) != 0 {
		t.Fatalf("deleted = %v", st.deleted)
	}
}
