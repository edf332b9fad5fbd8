// Package republish turns a finished render into a new catalog entry
// queued for platform publishing. The original video and its publish
// targets are never mutated.
package republish

import (
	"context"
	"fmt"
	"time"

	"github.com/captionforge/captionforge/internal/logging"
	"github.com/captionforge/captionforge/pkg/models"
	"github.com/google/uuid"
)

// Catalog is the slice of the video repository the bridge needs.
type Catalog interface {
	CreateVideo(ctx context.Context, video *models.VideoAsset) error
	CreatePublishTarget(ctx context.Context, target *models.PublishTarget) error
	ListPublishTargets(ctx context.Context, videoID string) ([]*models.PublishTarget, error)
}

// Uploader hands a pending publish target to the external upload service.
type Uploader interface {
	Upload(ctx context.Context, video *models.VideoAsset, platform string) error
}

// Bridge registers rendered videos and fans their publish targets out to
// the uploader.
type Bridge struct {
	catalog  Catalog
	uploader Uploader
	log      *logging.Logger
}

// NewBridge creates a republish bridge. The uploader may be nil, in which
// case targets are recorded as pending but not handed off.
func NewBridge(catalog Catalog, uploader Uploader, log *logging.Logger) *Bridge {
	return &Bridge{catalog: catalog, uploader: uploader, log: log}
}

// Republish creates a new video asset for the rendered output, clones the
// source video's publish targets in pending status and hands each to the
// upload service.
func (b *Bridge) Republish(ctx context.Context, source *models.VideoAsset, outputPath string) (*models.RenderedVideo, error) {
	asset := &models.VideoAsset{
		ID:        uuid.New().String(),
		Title:     source.Title + " (captioned)",
		Path:      outputPath,
		Duration:  source.Duration,
		Width:     source.Width,
		Height:    source.Height,
		FrameRate: source.FrameRate,
	}
	if err := b.catalog.CreateVideo(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to register rendered video: %w", err)
	}

	targets, err := b.catalog.ListPublishTargets(ctx, source.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load publish targets: %w", err)
	}

	rendered := &models.RenderedVideo{
		OutputPath: outputPath,
		SourceID:   source.ID,
	}

	for _, t := range targets {
		target := &models.PublishTarget{
			ID:        uuid.New().String(),
			VideoID:   asset.ID,
			Platform:  t.Platform,
			Status:    models.PublishStatusPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := b.catalog.CreatePublishTarget(ctx, target); err != nil {
			return nil, fmt.Errorf("failed to create publish target for %s: %w", t.Platform, err)
		}
		rendered.Platforms = append(rendered.Platforms, t.Platform)

		if b.uploader == nil {
			continue
		}
		if err := b.uploader.Upload(ctx, asset, t.Platform); err != nil {
			// Upload failures leave the target pending for a later retry.
			b.log.WithVideoID(asset.ID).WithError(err).
				Errorf("Failed to hand off upload for platform %s", t.Platform)
		}
	}

	b.log.WithVideoID(asset.ID).
		Infof("Registered rendered video for %d platforms", len(rendered.Platforms))
	return rendered, nil
}
