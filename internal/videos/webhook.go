package videos

import (
	"crypto/subtle"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/haidang029kg/ytb-api/pkg/response"
)

const webhookSecretHeader = "X-Webhook-Secret"

// WebhookHandler receives terminal processing results from the transcoding
// service on POST /videos/:id/processing-webhook.
type WebhookHandler struct {
	coord  *Coordinator
	secret string
	logger *zap.Logger
}

// NewWebhookHandler creates the webhook handler. An empty secret disables
// authentication of incoming callbacks.
func NewWebhookHandler(coord *Coordinator, secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{coord: coord, secret: secret, logger: logger}
}

// Handle applies a processing result to the video identified by the path.
func (h *WebhookHandler) Handle(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}

	if h.secret != "" {
		got := c.GetHeader(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("webhook rejected: bad secret", zap.Int64("video_id", id))
			response.Unauthorized(c, "invalid webhook secret")
			return
		}
	}

	var payload WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if payload.VideoID != 0 && payload.VideoID != id {
		response.BadRequest(c, "video id mismatch")
		return
	}
	payload.VideoID = id

	v, err := h.coord.ApplyProcessingResult(c.Request.Context(), id, payload)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidWebhookStatus):
			response.BadRequest(c, "status must be completed or failed")
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "video not found")
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(c, "video is not processing")
		default:
			h.logger.Error("webhook apply failed", zap.Int64("video_id", id), zap.Error(err))
			response.Internal(c, "failed to apply processing result")
		}
		return
	}
	response.OK(c, v)
}
