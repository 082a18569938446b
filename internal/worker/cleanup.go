package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/haidang029kg/ytb-api/pkg/queue"
)

// objectDeleter removes a single object from storage.
type objectDeleter interface {
	DeleteObject(ctx context.Context, key string) error
}

// CleanupProcessor consumes storage cleanup jobs and deletes the orphaned
// objects left behind by removed video records.
type CleanupProcessor struct {
	jobs    *queue.Queue
	storage objectDeleter
	logger  *zap.Logger
}

// NewCleanupProcessor creates a cleanup processor.
func NewCleanupProcessor(jobs *queue.Queue, storage objectDeleter, logger *zap.Logger) *CleanupProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupProcessor{jobs: jobs, storage: storage, logger: logger}
}

// Run consumes jobs until ctx is done.
func (p *CleanupProcessor) Run(ctx context.Context) error {
	p.logger.Info("storage cleanup worker started")
	for {
		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("storage cleanup worker stopped")
				return nil
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}
		if err := p.Process(ctx, job); err != nil {
			p.logger.Warn("cleanup job failed",
				zap.String("job_id", job.ID),
				zap.Int("attempt", job.Attempt),
				zap.Error(err),
			)
			if rerr := p.jobs.Retry(ctx, job); rerr != nil {
				p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(rerr))
			}
		}
	}
}

// Process deletes every object named by the job. A partial failure returns an
// error so the whole job is retried; DeleteObject on an already-deleted key
// succeeds, which keeps the retry idempotent.
func (p *CleanupProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeStorageCleanup {
		p.logger.Warn("skipping unknown job type", zap.String("type", string(job.Type)), zap.String("job_id", job.ID))
		return nil
	}
	var payload queue.StorageCleanupPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		// Malformed payloads will never succeed; drop instead of retrying.
		p.logger.Error("invalid cleanup payload", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	var failed []error
	for _, key := range payload.Keys {
		if err := p.storage.DeleteObject(ctx, key); err != nil {
			failed = append(failed, fmt.Errorf("delete %s: %w", key, err))
			continue
		}
		p.logger.Debug("deleted object", zap.String("key", key), zap.Int64("video_id", payload.VideoID))
	}
	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	p.logger.Info("storage cleanup done",
		zap.String("job_id", job.ID),
		zap.Int64("video_id", payload.VideoID),
		zap.Int("keys", len(payload.Keys)),
	)
	return nil
}
