package realtime

// ProcessingEvent is pushed to a video owner's connected studio sessions when
// the transcoder reports a terminal processing result.
type ProcessingEvent struct {
	VideoID           int64  `json:"video_id"`
	UserID            int64  `json:"user_id"`
	Status            string `json:"status"`
	ProcessedVideoURL string `json:"processed_video_url,omitempty"`
	Error             string `json:"error,omitempty"`
}
