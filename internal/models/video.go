package models

import (
	"time"
)

// VideoStatus represents the processing lifecycle of a video asset.
type VideoStatus string

const (
	// VideoStatusPending means the record exists; raw upload may or may not have landed yet.
	VideoStatusPending VideoStatus = "pending"
	// VideoStatusProcessing means the external transcoder accepted the job.
	VideoStatusProcessing VideoStatus = "processing"
	// VideoStatusCompleted means the transcoder reported a playable HLS output.
	VideoStatusCompleted VideoStatus = "completed"
	// VideoStatusFailed means the transcoder reported a terminal failure.
	VideoStatusFailed VideoStatus = "failed"
)

// Terminal reports whether the status is a terminal processing outcome.
func (s VideoStatus) Terminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s VideoStatus) Valid() bool {
	switch s {
	case VideoStatusPending, VideoStatusProcessing, VideoStatusCompleted, VideoStatusFailed:
		return true
	}
	return false
}

// Video is a hosted video asset: metadata, raw and processed object references,
// processing state and engagement counters.
type Video struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// Raw asset, set once when the upload is acknowledged.
	RawVideoURL string `json:"raw_video_url,omitempty"`
	RawVideoKey string `json:"raw_video_key,omitempty"`

	// Processed asset, set by the transcoder webhook.
	ProcessedVideoURL  string            `json:"processed_video_url,omitempty"`
	AvailableQualities map[string]string `json:"available_qualities,omitempty"`

	ProcessingStatus VideoStatus `json:"processing_status"`
	ProcessingError  string      `json:"processing_error,omitempty"`

	Duration int   `json:"duration"` // seconds
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`

	UserID      int64     `json:"user_id"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
