package videos

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/haidang029kg/ytb-api/internal/middleware"
	"github.com/haidang029kg/ytb-api/internal/models"
	"github.com/haidang029kg/ytb-api/internal/transcoder"
	"github.com/haidang029kg/ytb-api/pkg/queue"
	"github.com/haidang029kg/ytb-api/pkg/response"
	"github.com/haidang029kg/ytb-api/pkg/storage"
)

// CreateRequest is the body for POST /videos.
type CreateRequest struct {
	Title        string `json:"title" binding:"required,max=255"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     int    `json:"duration"`
}

// UpdateRequest is the body for PATCH /videos/:id. Nil fields are unchanged.
type UpdateRequest struct {
	Title        *string `json:"title" binding:"omitempty,max=255"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url"`
	Duration     *int    `json:"duration"`
	IsPublished  *bool   `json:"is_published"`
}

// ListResponse is the paginated video list envelope.
type ListResponse struct {
	Videos   []models.Video `json:"videos"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// PresignedUploadResponse is the body for GET /videos/presigned-upload-url.
type PresignedUploadResponse struct {
	UploadURL string `json:"upload_url"`
	VideoKey  string `json:"video_key"`
	ExpiresIn int    `json:"expires_in"`
}

// Handler handles video HTTP endpoints.
type Handler struct {
	repo    *Repository
	coord   *Coordinator
	gateway *storage.S3
	jobs    *queue.Queue
	logger  *zap.Logger
}

// NewHandler creates a video handler.
func NewHandler(repo *Repository, coord *Coordinator, gateway *storage.S3, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, coord: coord, gateway: gateway, jobs: jobs, logger: logger}
}

func videoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid video id")
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (page, pageSize, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, (page - 1) * pageSize
}

// Create handles POST /videos.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	v := &models.Video{
		Title:        req.Title,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
		UserID:       middleware.UserID(c),
	}
	if err := h.repo.Create(c.Request.Context(), v); err != nil {
		h.logger.Error("create video failed", zap.Error(err))
		response.Internal(c, "failed to create video")
		return
	}
	response.Created(c, v)
}

// ListPublished handles GET /videos. Public.
func (h *Handler) ListPublished(c *gin.Context) {
	page, pageSize, offset := pagination(c)
	list, total, err := h.repo.ListPublished(c.Request.Context(), offset, pageSize)
	if err != nil {
		h.logger.Error("list videos failed", zap.Error(err))
		response.Internal(c, "failed to list videos")
		return
	}
	response.OK(c, ListResponse{Videos: list, Total: total, Page: page, PageSize: pageSize})
}

// ListMine handles GET /videos/my.
func (h *Handler) ListMine(c *gin.Context) {
	page, pageSize, offset := pagination(c)
	list, total, err := h.repo.ListByOwner(c.Request.Context(), middleware.UserID(c), offset, pageSize)
	if err != nil {
		h.logger.Error("list own videos failed", zap.Error(err))
		response.Internal(c, "failed to list videos")
		return
	}
	response.OK(c, ListResponse{Videos: list, Total: total, Page: page, PageSize: pageSize})
}

// GetByID handles GET /videos/:id. Public; unpublished videos are
// indistinguishable from missing ones. Each hit bumps the view counter.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	v, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "video not found")
			return
		}
		response.Internal(c, "failed to load video")
		return
	}
	if !v.IsPublished {
		response.NotFound(c, "video not found")
		return
	}

	if err := h.repo.IncrementViews(c.Request.Context(), id); err != nil {
		h.logger.Warn("increment views failed", zap.Int64("video_id", id), zap.Error(err))
	} else {
		v.Views++
	}
	response.OK(c, v)
}

// Update handles PATCH /videos/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	v, err := h.repo.UpdateMeta(c.Request.Context(), id, middleware.UserID(c), UpdateParams{
		Title:        req.Title,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
		IsPublished:  req.IsPublished,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "video not found")
			return
		}
		response.Internal(c, "failed to update video")
		return
	}
	response.OK(c, v)
}

// PresignedUploadURL handles GET /videos/presigned-upload-url.
func (h *Handler) PresignedUploadURL(c *gin.Context) {
	fileExtension := c.DefaultQuery("file_extension", "mp4")
	contentType := c.DefaultQuery("content_type", "video/mp4")

	key := storage.ObjectKey(storage.FolderVideos, fileExtension)
	uploadURL, err := h.gateway.PresignUpload(c.Request.Context(), key, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			response.ServiceUnavailable(c, "object storage is not configured")
			return
		}
		h.logger.Error("presign upload failed", zap.Error(err))
		response.Internal(c, "failed to generate upload url")
		return
	}
	response.OK(c, PresignedUploadResponse{
		UploadURL: uploadURL,
		VideoKey:  key,
		ExpiresIn: int(h.gateway.PresignExpire().Seconds()),
	})
}

// UploadComplete handles PATCH /videos/:id/upload-complete?video_key=...
// Runs the upload-acknowledged transition: persist raw asset, dispatch
// transcoding, move to processing when the transcoder accepts.
func (h *Handler) UploadComplete(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	videoKey := c.Query("video_key")
	if videoKey == "" {
		response.BadRequest(c, "video_key required")
		return
	}

	res, err := h.coord.MarkUploaded(c.Request.Context(), id, middleware.UserID(c), videoKey)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotConfigured):
			response.ServiceUnavailable(c, "object storage is not configured")
		case errors.Is(err, transcoder.ErrNotConfigured):
			response.ServiceUnavailable(c, "transcoding service is not configured")
		case errors.Is(err, ErrNotFound):
			response.NotFound(c, "video not found")
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(c, "video processing already finished")
		default:
			h.logger.Error("upload-complete failed", zap.Int64("video_id", id), zap.Error(err))
			response.Internal(c, "failed to complete upload")
		}
		return
	}

	body := gin.H{"video": res.Video, "processing_dispatched": res.Dispatched}
	if !res.Dispatched {
		body["warning"] = "raw video saved but transcoding was not accepted; retry upload-complete to re-dispatch"
	}
	response.OK(c, body)
}

// Like handles POST /videos/:id/like.
func (h *Handler) Like(c *gin.Context) {
	h.increment(c, h.repo.IncrementLikes)
}

// Dislike handles POST /videos/:id/dislike.
func (h *Handler) Dislike(c *gin.Context) {
	h.increment(c, h.repo.IncrementDislikes)
}

func (h *Handler) increment(c *gin.Context, fn func(context.Context, int64) (*models.Video, error)) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	v, err := fn(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "video not found")
			return
		}
		response.Internal(c, "failed to update counters")
		return
	}
	response.OK(c, v)
}

// UploadThumbnail handles POST /videos/:id/thumbnail (multipart "file").
// The image is streamed server-side to object storage.
func (h *Handler) UploadThumbnail(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	ownerID := middleware.UserID(c)

	if _, err := h.repo.GetByIDForOwner(c.Request.Context(), id, ownerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "video not found")
			return
		}
		response.Internal(c, "failed to load video")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	if fileHeader.Size > storage.MaxThumbnailSize {
		response.BadRequest(c, "thumbnail too large")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateThumbnailType(contentType) {
		response.BadRequest(c, "unsupported thumbnail type")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer file.Close()

	ext := storage.AllowedThumbnailTypes[contentType]
	key := storage.ObjectKey(storage.FolderThumbnails, ext)
	url, err := h.gateway.Upload(c.Request.Context(), key, contentType, file)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			response.ServiceUnavailable(c, "object storage is not configured")
			return
		}
		h.logger.Error("thumbnail upload failed", zap.Int64("video_id", id), zap.Error(err))
		response.Internal(c, "failed to upload thumbnail")
		return
	}

	v, err := h.repo.SetThumbnailURL(c.Request.Context(), id, ownerID, url)
	if err != nil {
		response.Internal(c, "failed to save thumbnail url")
		return
	}
	response.OK(c, v)
}

// Delete handles DELETE /videos/:id. The record is removed first; object
// cleanup is handed to the background worker so a storage hiccup never blocks
// the delete.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		return
	}
	ownerID := middleware.UserID(c)

	v, err := h.repo.GetByIDForOwner(c.Request.Context(), id, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "video not found")
			return
		}
		response.Internal(c, "failed to load video")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id, ownerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "video not found")
			return
		}
		response.Internal(c, "failed to delete video")
		return
	}

	var keys []string
	if v.RawVideoKey != "" {
		keys = append(keys, v.RawVideoKey)
	}
	if h.jobs != nil && len(keys) > 0 {
		if err := h.jobs.EnqueueStorageCleanup(c.Request.Context(), queue.StorageCleanupPayload{VideoID: id, Keys: keys}); err != nil {
			// Orphaned objects are acceptable; the record is gone either way.
			h.logger.Warn("enqueue storage cleanup failed", zap.Int64("video_id", id), zap.Error(err))
		}
	}
	response.NoContent(c)
}
