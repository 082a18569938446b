package videos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/haidang029kg/ytb-api/internal/models"
	"github.com/haidang029kg/ytb-api/internal/realtime"
	"github.com/haidang029kg/ytb-api/internal/transcoder"
)

// ErrInvalidWebhookStatus is returned when a webhook reports a status outside
// {completed, failed}.
var ErrInvalidWebhookStatus = errors.New("webhook status must be completed or failed")

// Store is the record persistence the coordinator depends on.
type Store interface {
	GetByIDForOwner(ctx context.Context, id, ownerID int64) (*models.Video, error)
	SetRawVideo(ctx context.Context, id, ownerID int64, rawURL, rawKey string) (*models.Video, error)
	MarkProcessing(ctx context.Context, id int64) (*models.Video, error)
	ApplyTerminal(ctx context.Context, id int64, res TerminalResult) (*models.Video, error)
}

// ObjectStorage is the download-URL issuance the coordinator depends on.
type ObjectStorage interface {
	PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Dispatcher hands a processing job to the external transcoding service.
type Dispatcher interface {
	Dispatch(ctx context.Context, req transcoder.ProcessingRequest) error
}

// EventPublisher announces terminal processing results.
type EventPublisher interface {
	PublishProcessing(ctx context.Context, ev realtime.ProcessingEvent) error
}

// Coordinator drives the video processing lifecycle:
// pending -> processing -> completed|failed. It persists durable state before
// handing off to the transcoder, so a crash or rejected dispatch always
// leaves the record recoverable by re-running the transition.
type Coordinator struct {
	store      Store
	gateway    ObjectStorage
	dispatcher Dispatcher
	events     EventPublisher // optional
	callbackBase string
	qualities    []string
	logger       *zap.Logger
}

// NewCoordinator creates a lifecycle coordinator. events may be nil.
func NewCoordinator(store Store, gateway ObjectStorage, dispatcher Dispatcher, events EventPublisher, callbackBase string, qualities []string, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:        store,
		gateway:      gateway,
		dispatcher:   dispatcher,
		events:       events,
		callbackBase: callbackBase,
		qualities:    qualities,
		logger:       logger,
	}
}

// UploadResult is the outcome of MarkUploaded. Dispatched false means the raw
// asset was saved but the transcoder did not take the job; the caller should
// surface a warning and the client can retry the same transition.
type UploadResult struct {
	Video      *models.Video
	Dispatched bool
}

// CallbackURL returns the webhook URL the transcoder reports back to for a video.
func (co *Coordinator) CallbackURL(videoID int64) string {
	return fmt.Sprintf("%s/videos/%d/processing-webhook", co.callbackBase, videoID)
}

// MarkUploaded acknowledges a finished raw upload and dispatches transcoding.
//
// Order matters: the presigned download URL is resolved first (storage
// unavailable fails the whole call with nothing persisted), the raw fields
// are then written durably, and only after that is the transcoder invoked.
// A rejected dispatch leaves the video pending with its raw asset saved.
func (co *Coordinator) MarkUploaded(ctx context.Context, videoID, ownerID int64, objectKey string) (*UploadResult, error) {
	rawURL, err := co.gateway.PresignDownload(ctx, objectKey, 0)
	if err != nil {
		return nil, fmt.Errorf("resolve raw video url: %w", err)
	}

	video, err := co.store.GetByIDForOwner(ctx, videoID, ownerID)
	if err != nil {
		return nil, err
	}
	if video.ProcessingStatus.Terminal() {
		return nil, ErrInvalidTransition
	}

	video, err = co.store.SetRawVideo(ctx, videoID, ownerID, rawURL, objectKey)
	if err != nil {
		return nil, err
	}

	req := transcoder.ProcessingRequest{
		VideoID:     videoID,
		RawVideoURL: rawURL,
		CallbackURL: co.CallbackURL(videoID),
		Qualities:   co.qualities,
	}
	if err := co.dispatcher.Dispatch(ctx, req); err != nil {
		if errors.Is(err, transcoder.ErrNotConfigured) {
			// Raw asset is saved; the missing endpoint is an operator
			// problem and must not read as a client error.
			return nil, err
		}
		co.logger.Warn("transcoding dispatch rejected; video stays pending",
			zap.Int64("video_id", videoID),
			zap.Error(err),
		)
		return &UploadResult{Video: video, Dispatched: false}, nil
	}

	video, err = co.store.MarkProcessing(ctx, videoID)
	if err != nil {
		return nil, err
	}
	co.logger.Info("video processing dispatched",
		zap.Int64("video_id", videoID),
		zap.String("raw_video_key", objectKey),
	)
	return &UploadResult{Video: video, Dispatched: true}, nil
}

// WebhookPayload is the body of the transcoder's terminal callback.
type WebhookPayload struct {
	VideoID            int64             `json:"video_id"`
	Status             string            `json:"status"`
	ProcessedVideoURL  string            `json:"processed_video_url,omitempty"`
	AvailableQualities map[string]string `json:"available_qualities,omitempty"`
	Error              string            `json:"error,omitempty"`
	Duration           *int              `json:"duration,omitempty"`
}

// ApplyProcessingResult applies a terminal webhook result. The transcoder is
// the sole source of truth for processing outcome: duplicate webhooks are
// idempotent overwrites, and a terminal state may be corrected to the other
// terminal state. Anything else (unknown status, unknown video, a video never
// dispatched) is rejected without mutation.
func (co *Coordinator) ApplyProcessingResult(ctx context.Context, videoID int64, payload WebhookPayload) (*models.Video, error) {
	status := models.VideoStatus(payload.Status)
	if !status.Terminal() {
		return nil, ErrInvalidWebhookStatus
	}

	video, err := co.store.ApplyTerminal(ctx, videoID, TerminalResult{
		Status:             status,
		ProcessedVideoURL:  payload.ProcessedVideoURL,
		AvailableQualities: payload.AvailableQualities,
		Error:              payload.Error,
		Duration:           payload.Duration,
	})
	if err != nil {
		return nil, err
	}

	if status == models.VideoStatusFailed {
		co.logger.Warn("video processing failed",
			zap.Int64("video_id", videoID),
			zap.String("error", payload.Error),
		)
	} else {
		co.logger.Info("video processing completed",
			zap.Int64("video_id", videoID),
			zap.String("processed_video_url", payload.ProcessedVideoURL),
		)
	}

	if co.events != nil {
		ev := realtime.ProcessingEvent{
			VideoID:           video.ID,
			UserID:            video.UserID,
			Status:            string(video.ProcessingStatus),
			ProcessedVideoURL: video.ProcessedVideoURL,
			Error:             video.ProcessingError,
		}
		if err := co.events.PublishProcessing(ctx, ev); err != nil {
			co.logger.Warn("publish processing event failed", zap.Int64("video_id", video.ID), zap.Error(err))
		}
	}
	return video, nil
}
