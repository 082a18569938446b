package videos

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haidang029kg/ytb-api/internal/models"
)

var (
	// ErrNotFound covers both a missing video and a video owned by someone
	// else; callers cannot tell the two apart.
	ErrNotFound = errors.New("video not found")
	// ErrInvalidTransition is returned when a status change would move a
	// video backward in its lifecycle.
	ErrInvalidTransition = errors.New("invalid processing status transition")
)

// Repository is the persistence layer for videos. Every status transition is
// a single conditional UPDATE (update-where-status-matches), so concurrent
// writers race on whole rows, never on partially applied state.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a video repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const videoColumns = `id, title, COALESCE(description,''), COALESCE(thumbnail_url,''),
	COALESCE(raw_video_url,''), COALESCE(raw_video_key,''), COALESCE(processed_video_url,''),
	processing_status, COALESCE(processing_error,''), available_qualities,
	duration, views, likes, dislikes, user_id, is_published, created_at, updated_at`

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.ThumbnailURL,
		&v.RawVideoURL, &v.RawVideoKey, &v.ProcessedVideoURL,
		&v.ProcessingStatus, &v.ProcessingError, &v.AvailableQualities,
		&v.Duration, &v.Views, &v.Likes, &v.Dislikes, &v.UserID, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Create inserts a new video with status pending.
func (r *Repository) Create(ctx context.Context, v *models.Video) error {
	const q = `INSERT INTO videos (title, description, thumbnail_url, duration, user_id)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4, $5)
		RETURNING ` + videoColumns
	created, err := scanVideo(r.pool.QueryRow(ctx, q, v.Title, v.Description, v.ThumbnailURL, v.Duration, v.UserID))
	if err != nil {
		return err
	}
	*v = *created
	return nil
}

// GetByID returns a video by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	const q = `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`
	return scanVideo(r.pool.QueryRow(ctx, q, id))
}

// GetByIDForOwner returns a video by ID only when owned by ownerID.
func (r *Repository) GetByIDForOwner(ctx context.Context, id, ownerID int64) (*models.Video, error) {
	const q = `SELECT ` + videoColumns + ` FROM videos WHERE id = $1 AND user_id = $2`
	return scanVideo(r.pool.QueryRow(ctx, q, id, ownerID))
}

// ListPublished returns published videos with total count, newest first.
func (r *Repository) ListPublished(ctx context.Context, offset, limit int) ([]models.Video, int, error) {
	const countQ = `SELECT COUNT(*) FROM videos WHERE is_published = TRUE`
	var total int
	if err := r.pool.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, err
	}
	const q = `SELECT ` + videoColumns + ` FROM videos WHERE is_published = TRUE
		ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	return r.list(ctx, q, total, offset, limit)
}

// ListByOwner returns a user's videos with total count, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]models.Video, int, error) {
	const countQ = `SELECT COUNT(*) FROM videos WHERE user_id = $1`
	var total int
	if err := r.pool.QueryRow(ctx, countQ, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	const q = `SELECT ` + videoColumns + ` FROM videos WHERE user_id = $3
		ORDER BY created_at DESC OFFSET $1 LIMIT $2`
	return r.list(ctx, q, total, offset, limit, ownerID)
}

func (r *Repository) list(ctx context.Context, q string, total, offset, limit int, extra ...interface{}) ([]models.Video, int, error) {
	args := append([]interface{}{offset, limit}, extra...)
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *v)
	}
	return list, total, rows.Err()
}

// UpdateParams holds optional metadata fields; nil means leave unchanged.
type UpdateParams struct {
	Title        *string
	Description  *string
	ThumbnailURL *string
	Duration     *int
	IsPublished  *bool
}

// UpdateMeta updates metadata fields for an owned video.
func (r *Repository) UpdateMeta(ctx context.Context, id, ownerID int64, p UpdateParams) (*models.Video, error) {
	const q = `UPDATE videos SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			thumbnail_url = COALESCE($5, thumbnail_url),
			duration = COALESCE($6, duration),
			is_published = COALESCE($7, is_published),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + videoColumns
	return scanVideo(r.pool.QueryRow(ctx, q, id, ownerID, p.Title, p.Description, p.ThumbnailURL, p.Duration, p.IsPublished))
}

// SetThumbnailURL sets the thumbnail URL for an owned video.
func (r *Repository) SetThumbnailURL(ctx context.Context, id, ownerID int64, url string) (*models.Video, error) {
	const q = `UPDATE videos SET thumbnail_url = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + videoColumns
	return scanVideo(r.pool.QueryRow(ctx, q, id, ownerID, url))
}

// SetRawVideo persists the raw asset URL and key for an owned video. Only
// pending and processing videos accept a raw (re-)upload; re-running the
// upload-complete transition overwrites the previous key.
func (r *Repository) SetRawVideo(ctx context.Context, id, ownerID int64, rawURL, rawKey string) (*models.Video, error) {
	const q = `UPDATE videos SET raw_video_url = $3, raw_video_key = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND processing_status IN ('pending','processing')
		RETURNING ` + videoColumns
	return scanVideo(r.pool.QueryRow(ctx, q, id, ownerID, rawURL, rawKey))
}

// MarkProcessing moves a video to processing. The conditional keeps terminal
// videos terminal: only pending (or already processing, for retried
// dispatches) rows match.
func (r *Repository) MarkProcessing(ctx context.Context, id int64) (*models.Video, error) {
	const q = `UPDATE videos SET processing_status = 'processing', updated_at = NOW()
		WHERE id = $1 AND processing_status IN ('pending','processing')
		RETURNING ` + videoColumns
	v, err := scanVideo(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, r.transitionError(ctx, id)
		}
		return nil, err
	}
	return v, nil
}

// TerminalResult carries a transcoder webhook outcome.
type TerminalResult struct {
	Status             models.VideoStatus
	ProcessedVideoURL  string
	AvailableQualities map[string]string
	Error              string
	Duration           *int
}

// ApplyTerminal applies a terminal processing result as one conditional
// update. Allowed from processing, and from either terminal state: a repeated
// identical webhook is a no-op overwrite, and the external worker may correct
// one terminal outcome with the other (last write wins). A failed result
// clears any previously reported output. A pending video never matches; the
// transcoder cannot report on a job that was never dispatched.
func (r *Repository) ApplyTerminal(ctx context.Context, id int64, res TerminalResult) (*models.Video, error) {
	const q = `UPDATE videos SET
			processing_status = $2,
			processed_video_url = CASE WHEN $2 = 'completed' THEN NULLIF($3,'') ELSE NULL END,
			available_qualities = CASE WHEN $2 = 'completed' THEN $4 ELSE NULL END,
			duration = CASE WHEN $2 = 'completed' THEN COALESCE($5, duration) ELSE duration END,
			processing_error = CASE WHEN $2 = 'completed' THEN NULL ELSE NULLIF($6,'') END,
			updated_at = NOW()
		WHERE id = $1 AND processing_status IN ('processing','completed','failed')
		RETURNING ` + videoColumns
	v, err := scanVideo(r.pool.QueryRow(ctx, q, id,
		string(res.Status), res.ProcessedVideoURL, res.AvailableQualities, res.Duration, res.Error))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, r.transitionError(ctx, id)
		}
		return nil, err
	}
	return v, nil
}

// transitionError distinguishes "no such video" from "video exists but the
// conditional did not match" after a zero-row conditional update.
func (r *Repository) transitionError(ctx context.Context, id int64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrInvalidTransition
}

// IncrementViews bumps the view counter as a single atomic add; concurrent
// viewers never lose updates. updated_at is left alone so views do not churn
// the modification timestamp.
func (r *Repository) IncrementViews(ctx context.Context, id int64) error {
	const q = `UPDATE videos SET views = views + 1 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementLikes bumps the like counter atomically.
func (r *Repository) IncrementLikes(ctx context.Context, id int64) (*models.Video, error) {
	const q = `UPDATE videos SET likes = likes + 1, updated_at = NOW() WHERE id = $1
		RETURNING ` + videoColumns
	return scanVideo(r.pool.QueryRow(ctx, q, id))
}

// IncrementDislikes bumps the dislike counter atomically.
func (r *Repository) IncrementDislikes(ctx context.Context, id int64) (*models.Video, error) {
	const q = `UPDATE videos SET dislikes = dislikes + 1, updated_at = NOW() WHERE id = $1
		RETURNING ` + videoColumns
	return scanVideo(r.pool.QueryRow(ctx, q, id))
}

// Delete removes an owned video record.
func (r *Repository) Delete(ctx context.Context, id, ownerID int64) error {
	const q = `DELETE FROM videos WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, q, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
