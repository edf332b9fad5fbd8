package models

import "time"

// VideoAsset represents a source video in the catalog. Probed metadata
// (duration, dimensions, frame rate) is immutable once recorded.
type VideoAsset struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Path      string    `json:"path" db:"path"`
	Duration  float64   `json:"duration" db:"duration"`
	Width     int       `json:"width" db:"width"`
	Height    int       `json:"height" db:"height"`
	FrameRate float64   `json:"frame_rate" db:"frame_rate"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublishTarget is one platform a video is queued for publishing to.
type PublishTarget struct {
	ID        string    `json:"id" db:"id"`
	VideoID   string    `json:"video_id" db:"video_id"`
	Platform  string    `json:"platform" db:"platform"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PublishStatus constants
const (
	PublishStatusPending   = "pending"
	PublishStatusUploading = "uploading"
	PublishStatusPublished = "published"
	PublishStatusFailed    = "failed"
)

// RenderedVideo is the result of burning subtitles into a source video.
type RenderedVideo struct {
	OutputPath string   `json:"output_path"`
	SourceID   string   `json:"source_id"`
	Platforms  []string `json:"platforms"`
}
