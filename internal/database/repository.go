package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/captionforge/captionforge/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Health checks database connectivity
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Video assets

// CreateVideo creates a new video asset record
func (r *Repository) CreateVideo(ctx context.Context, video *models.VideoAsset) error {
	if video.ID == "" {
		video.ID = uuid.New().String()
	}

	query := `
		INSERT INTO video_assets (id, title, path, duration, width, height, frame_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.ID, video.Title, video.Path, video.Duration,
		video.Width, video.Height, video.FrameRate,
	).Scan(&video.CreatedAt, &video.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create video asset: %w", err)
	}

	return nil
}

// GetVideo retrieves a video asset by ID
func (r *Repository) GetVideo(ctx context.Context, id string) (*models.VideoAsset, error) {
	var video models.VideoAsset

	query := `
		SELECT id, title, path, duration, width, height, frame_rate, created_at, updated_at
		FROM video_assets
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&video.ID, &video.Title, &video.Path, &video.Duration,
		&video.Width, &video.Height, &video.FrameRate,
		&video.CreatedAt, &video.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("video asset %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video asset: %w", err)
	}

	return &video, nil
}

// Publish targets

// CreatePublishTarget creates a new publish target record
func (r *Repository) CreatePublishTarget(ctx context.Context, target *models.PublishTarget) error {
	if target.ID == "" {
		target.ID = uuid.New().String()
	}

	query := `
		INSERT INTO publish_targets (id, video_id, platform, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		target.ID, target.VideoID, target.Platform, target.Status,
	).Scan(&target.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create publish target: %w", err)
	}

	return nil
}

// ListPublishTargets lists the publish targets for a video
func (r *Repository) ListPublishTargets(ctx context.Context, videoID string) ([]*models.PublishTarget, error) {
	query := `
		SELECT id, video_id, platform, status, created_at
		FROM publish_targets
		WHERE video_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list publish targets: %w", err)
	}
	defer rows.Close()

	var targets []*models.PublishTarget
	for rows.Next() {
		var t models.PublishTarget
		if err := rows.Scan(&t.ID, &t.VideoID, &t.Platform, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan publish target: %w", err)
		}
		targets = append(targets, &t)
	}

	return targets, rows.Err()
}

// Generation mirror
//
// Completed generations are mirrored here so they survive expiry of the
// ephemeral store. The subtitle sequence is stored as JSONB.

// SaveGeneration upserts the durable copy of a completed generation
func (r *Repository) SaveGeneration(ctx context.Context, job *models.GenerationJob) error {
	subtitles, err := json.Marshal(job.Subtitles)
	if err != nil {
		return fmt.Errorf("failed to marshal subtitles: %w", err)
	}

	query := `
		INSERT INTO generations (id, video_id, status, stage, progress, language,
		                         style_name, position_name, subtitles,
		                         srt_path, words_path, render_path, error_msg,
		                         started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			stage = EXCLUDED.stage,
			progress = EXCLUDED.progress,
			subtitles = EXCLUDED.subtitles,
			srt_path = EXCLUDED.srt_path,
			words_path = EXCLUDED.words_path,
			render_path = EXCLUDED.render_path,
			error_msg = EXCLUDED.error_msg,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.Pool.Exec(ctx, query,
		job.ID, job.VideoID, job.Status, job.Stage, job.Progress, job.Language,
		job.StyleName, job.PosName, subtitles,
		job.SRTPath, job.WordsPath, job.RenderPath, job.ErrorMsg,
		job.StartedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save generation: %w", err)
	}

	return nil
}

// GetGeneration retrieves the durable copy of a generation
func (r *Repository) GetGeneration(ctx context.Context, id string) (*models.GenerationJob, error) {
	var job models.GenerationJob
	var subtitles []byte

	query := `
		SELECT id, video_id, status, stage, progress, language,
		       style_name, position_name, subtitles,
		       srt_path, words_path, render_path, error_msg,
		       started_at, completed_at
		FROM generations
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.VideoID, &job.Status, &job.Stage, &job.Progress, &job.Language,
		&job.StyleName, &job.PosName, &subtitles,
		&job.SRTPath, &job.WordsPath, &job.RenderPath, &job.ErrorMsg,
		&job.StartedAt, &job.CompletedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("generation %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}

	if len(subtitles) > 0 {
		if err := json.Unmarshal(subtitles, &job.Subtitles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subtitles: %w", err)
		}
	}

	return &job, nil
}
