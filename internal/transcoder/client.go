// Package transcoder is the outbound client for the external transcoding
// service. A dispatch either clearly hands the job off (2xx) or clearly does
// not; timeouts, connection failures and non-2xx responses are all the same
// "rejected" outcome to the caller, and no retry happens here.
package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotConfigured is returned when no transcoder endpoint is set.
	ErrNotConfigured = errors.New("transcoder endpoint not configured")
	// ErrRejected is returned when the transcoder did not accept the job.
	ErrRejected = errors.New("transcoder rejected dispatch")
)

// ProcessingRequest is the body sent to the transcoder's processing endpoint.
type ProcessingRequest struct {
	VideoID     int64    `json:"video_id"`
	RawVideoURL string   `json:"raw_video_url"`
	CallbackURL string   `json:"callback_url"`
	Qualities   []string `json:"qualities"`
}

// Client dispatches processing jobs to the external transcoding service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a dispatch client. An empty baseURL means dispatch is
// unavailable and every call returns ErrNotConfigured.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Dispatch sends one processing request. A nil return means the external
// service took ownership of the job and will call back exactly once with a
// terminal result. Any error wraps ErrRejected, except ErrNotConfigured.
func (c *Client) Dispatch(ctx context.Context, req ProcessingRequest) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrRejected, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/videos/process", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRejected, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error("transcoder dispatch failed",
			zap.Int64("video_id", req.VideoID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("transcoder dispatch rejected",
			zap.Int64("video_id", req.VideoID),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	c.logger.Info("transcoder dispatch accepted",
		zap.Int64("video_id", req.VideoID),
		zap.Int("status", resp.StatusCode),
		zap.Strings("qualities", req.Qualities),
	)
	return nil
}
