// Package generate orchestrates the subtitle generation pipeline: audio
// extraction, transcription, subtitle building, file export and word
// timing generation, with job state tracked in the dual store.
package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/captionforge/captionforge/internal/jobstore"
	"github.com/captionforge/captionforge/internal/logging"
	"github.com/captionforge/captionforge/internal/media"
	"github.com/captionforge/captionforge/internal/metrics"
	"github.com/captionforge/captionforge/internal/preset"
	"github.com/captionforge/captionforge/internal/queue"
	"github.com/captionforge/captionforge/internal/subtitle"
	"github.com/captionforge/captionforge/internal/tracing"
	"github.com/captionforge/captionforge/internal/transcribe"
	"github.com/captionforge/captionforge/internal/webhook"
	"github.com/captionforge/captionforge/pkg/models"
	"github.com/google/uuid"
)

// Transcriber converts an audio file into timed speech segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (*transcribe.Result, error)
}

// VideoCatalog loads source video records.
type VideoCatalog interface {
	GetVideo(ctx context.Context, id string) (*models.VideoAsset, error)
}

// ArtifactUploader pushes generated files into object storage and returns
// the stored object key.
type ArtifactUploader interface {
	UploadArtifact(ctx context.Context, generationID, filePath string) (string, error)
}

// Renderer burns a subtitle sequence into a video and returns the output
// path.
type Renderer interface {
	Render(ctx context.Context, video *models.VideoAsset, subs []models.Subtitle) (string, error)
}

// Republisher turns a finished render into a new catalog entry queued for
// platform publishing.
type Republisher interface {
	Republish(ctx context.Context, source *models.VideoAsset, outputPath string) (*models.RenderedVideo, error)
}

// TaskPublisher enqueues pipeline tasks for the worker.
type TaskPublisher interface {
	PublishTask(ctx context.Context, task *queue.Task) error
}

// Notifier broadcasts lifecycle events to external listeners.
type Notifier interface {
	Notify(ctx context.Context, event string, data interface{}) error
}

// Deps bundles the service's collaborators. Uploader, Republisher and
// Notifier are optional; the rest are required.
type Deps struct {
	Store       jobstore.Store
	Videos      VideoCatalog
	Toolchain   media.Toolchain
	Transcriber Transcriber
	Catalog     *preset.Catalog
	Tasks       TaskPublisher
	Uploader    ArtifactUploader
	Renderer    Renderer
	Republisher Republisher
	Notifier    Notifier
	Logger      *logging.Logger
	TempDir     string
}

// Service runs generation requests end to end.
type Service struct {
	deps Deps
}

// NewService creates the pipeline service.
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Start validates the source video, records a pending job and enqueues the
// generation task. The pipeline itself runs on a worker.
func (s *Service) Start(ctx context.Context, videoID, language, styleName, posName string) (*models.GenerationJob, error) {
	if _, err := s.deps.Videos.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}

	job := &models.GenerationJob{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		Status:    models.GenerationStatusPending,
		Stage:     models.StageAudioExtraction,
		Language:  language,
		StyleName: styleName,
		PosName:   posName,
		StartedAt: time.Now().UTC(),
	}

	if err := s.deps.Store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create generation record: %w", err)
	}
	metrics.RecordGenerationStarted()

	task := &queue.Task{
		Kind:         queue.TaskGenerate,
		GenerationID: job.ID,
		VideoID:      videoID,
		Language:     language,
		StyleName:    styleName,
		PositionName: posName,
	}
	if err := s.deps.Tasks.PublishTask(ctx, task); err != nil {
		s.fail(ctx, job.ID, fmt.Errorf("failed to enqueue generation: %w", err))
		return nil, err
	}

	s.deps.Logger.WithGenerationID(job.ID).WithVideoID(videoID).Info("Generation queued")
	return job, nil
}

// StartRender validates that the generation finished and enqueues the
// render task.
func (s *Service) StartRender(ctx context.Context, generationID string) (*models.GenerationJob, error) {
	job, err := s.deps.Store.Get(ctx, generationID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.GenerationStatusCompleted || len(job.Subtitles) == 0 {
		return nil, fmt.Errorf("generation %s has no subtitles to render", generationID)
	}

	task := &queue.Task{
		Kind:         queue.TaskRender,
		GenerationID: job.ID,
		VideoID:      job.VideoID,
	}
	if err := s.deps.Tasks.PublishTask(ctx, task); err != nil {
		return nil, err
	}

	s.deps.Logger.WithGenerationID(job.ID).Info("Render queued")
	return job, nil
}

// Run executes the full generation pipeline for a queued job. Any stage
// failure marks the job failed with the wrapped cause; failed jobs are
// never retried.
func (s *Service) Run(ctx context.Context, generationID string) error {
	job, err := s.deps.Store.Get(ctx, generationID)
	if err != nil {
		return err
	}
	if job.Terminal() {
		return nil
	}

	log := s.deps.Logger.WithGenerationID(job.ID).WithVideoID(job.VideoID)

	span, ctx := tracing.StartSpan(ctx, "generation.pipeline")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "generation.id", job.ID)
	tracing.SetTag(span, "video.id", job.VideoID)

	video, err := s.deps.Videos.GetVideo(ctx, job.VideoID)
	if err != nil {
		tracing.LogError(span, err)
		return s.fail(ctx, job.ID, err)
	}

	audioPath := filepath.Join(s.deps.TempDir, job.ID+".wav")
	if err := s.runStage(ctx, job.ID, models.StageAudioExtraction, 0.10, func() error {
		return s.deps.Toolchain.ExtractAudio(ctx, video.Path, audioPath)
	}); err != nil {
		tracing.LogError(span, err)
		return s.fail(ctx, job.ID, err)
	}
	if _, err := s.deps.Store.Update(ctx, job.ID, func(j *models.GenerationJob) {
		j.AudioPath = audioPath
	}); err != nil {
		return s.fail(ctx, job.ID, err)
	}

	var result *transcribe.Result
	if err := s.runStage(ctx, job.ID, models.StageTranscription, 0.35, func() error {
		var trErr error
		result, trErr = s.deps.Transcriber.Transcribe(ctx, audioPath, job.Language)
		return trErr
	}); err != nil {
		tracing.LogError(span, err)
		return s.fail(ctx, job.ID, err)
	}

	var subs []models.Subtitle
	if err := s.runStage(ctx, job.ID, models.StageSubtitles, 0.60, func() error {
		subs = subtitle.Build(result.Segments, s.deps.Catalog, job.StyleName, job.PosName)
		return nil
	}); err != nil {
		return s.fail(ctx, job.ID, err)
	}
	if _, err := s.deps.Store.Update(ctx, job.ID, func(j *models.GenerationJob) {
		j.Subtitles = subs
		if j.Language == "" {
			j.Language = result.Language
		}
	}); err != nil {
		return s.fail(ctx, job.ID, err)
	}

	var srtPath string
	if err := s.runStage(ctx, job.ID, models.StageFileGeneration, 0.80, func() error {
		var expErr error
		srtPath, expErr = s.writeArtifact(ctx, job.ID, job.ID+".srt", []byte(subtitle.FormatAsSRT(subs)))
		if expErr == nil {
			metrics.RecordExport(subtitle.FormatSRT)
		}
		return expErr
	}); err != nil {
		tracing.LogError(span, err)
		return s.fail(ctx, job.ID, err)
	}
	if _, err := s.deps.Store.Update(ctx, job.ID, func(j *models.GenerationJob) {
		j.SRTPath = srtPath
	}); err != nil {
		return s.fail(ctx, job.ID, err)
	}

	var wordsPath string
	if err := s.runStage(ctx, job.ID, models.StageWordTiming, 0.95, func() error {
		data, jsonErr := subtitle.WordTimingJSON(subs)
		if jsonErr != nil {
			return jsonErr
		}
		var wErr error
		wordsPath, wErr = s.writeArtifact(ctx, job.ID, job.ID+"_words.json", data)
		return wErr
	}); err != nil {
		tracing.LogError(span, err)
		return s.fail(ctx, job.ID, err)
	}

	now := time.Now().UTC()
	completed, err := s.deps.Store.Update(ctx, job.ID, func(j *models.GenerationJob) {
		j.WordsPath = wordsPath
		j.Status = models.GenerationStatusCompleted
		j.Stage = models.StageCompleted
		j.Progress = 1.0
		j.CompletedAt = &now
	})
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	if err := s.deps.Store.Mirror(ctx, completed); err != nil {
		log.WithError(err).Error("Failed to mirror completed generation")
	}

	metrics.RecordGenerationFinished(models.GenerationStatusCompleted)
	s.notify(ctx, webhook.EventGenerationCompleted, completed)
	log.Infof("Generation completed with %d subtitles", len(subs))
	return nil
}

// Render burns the completed generation's subtitles into the source video
// and hands the result to the republish bridge.
func (s *Service) Render(ctx context.Context, generationID string) error {
	job, err := s.deps.Store.Get(ctx, generationID)
	if err != nil {
		return err
	}
	if job.Status != models.GenerationStatusCompleted || len(job.Subtitles) == 0 {
		return fmt.Errorf("generation %s has no subtitles to render", generationID)
	}

	log := s.deps.Logger.WithGenerationID(job.ID).WithVideoID(job.VideoID)

	span, ctx := tracing.StartSpan(ctx, "generation.render")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "generation.id", job.ID)

	video, err := s.deps.Videos.GetVideo(ctx, job.VideoID)
	if err != nil {
		tracing.LogError(span, err)
		return err
	}

	outputPath, err := s.deps.Renderer.Render(ctx, video, job.Subtitles)
	if err != nil {
		tracing.LogError(span, err)
		s.recordRenderError(ctx, job.ID, err)
		return err
	}

	updated, err := s.deps.Store.Update(ctx, job.ID, func(j *models.GenerationJob) {
		j.RenderPath = outputPath
	})
	if err != nil {
		return err
	}
	if err := s.deps.Store.Mirror(ctx, updated); err != nil {
		log.WithError(err).Error("Failed to mirror rendered generation")
	}

	if s.deps.Republisher != nil {
		rendered, err := s.deps.Republisher.Republish(ctx, video, outputPath)
		if err != nil {
			tracing.LogError(span, err)
			return err
		}
		log.Infof("Render republished to %d platforms", len(rendered.Platforms))
	}

	s.notify(ctx, webhook.EventRenderCompleted, updated)
	log.Info("Render completed")
	return nil
}

// runStage advances the job to the stage, runs fn and records the stage
// duration.
func (s *Service) runStage(ctx context.Context, id, stage string, progress float64, fn func() error) error {
	if _, err := s.deps.Store.Update(ctx, id, func(j *models.GenerationJob) {
		j.Status = models.GenerationStatusProcessing
		j.Stage = stage
		j.Progress = progress
	}); err != nil {
		return err
	}
	s.deps.Logger.LogStageTransition(id, stage, progress)

	started := time.Now()
	if err := fn(); err != nil {
		return err
	}
	metrics.RecordStage(stage, time.Since(started).Seconds())
	return nil
}

// writeArtifact writes data into the temp directory and, when an uploader
// is configured, pushes it to object storage. The returned path is the
// object key when uploaded, the local path otherwise.
func (s *Service) writeArtifact(ctx context.Context, generationID, filename string, data []byte) (string, error) {
	localPath := filepath.Join(s.deps.TempDir, filename)
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", filename, err)
	}

	if s.deps.Uploader == nil {
		return localPath, nil
	}

	key, err := s.deps.Uploader.UploadArtifact(ctx, generationID, localPath)
	if err != nil {
		return "", err
	}
	return key, nil
}

// fail marks the job failed with the cause, mirrors the terminal record
// and passes the error back up.
func (s *Service) fail(ctx context.Context, id string, cause error) error {
	now := time.Now().UTC()
	job, err := s.deps.Store.Update(ctx, id, func(j *models.GenerationJob) {
		j.Status = models.GenerationStatusFailed
		j.ErrorMsg = cause.Error()
		j.CompletedAt = &now
	})
	if err != nil {
		s.deps.Logger.WithGenerationID(id).WithError(err).Error("Failed to record generation failure")
		return cause
	}

	if err := s.deps.Store.Mirror(ctx, job); err != nil {
		s.deps.Logger.WithGenerationID(id).WithError(err).Error("Failed to mirror failed generation")
	}

	metrics.RecordGenerationFinished(models.GenerationStatusFailed)
	s.notify(ctx, webhook.EventGenerationFailed, job)
	s.deps.Logger.WithGenerationID(id).WithError(cause).Error("Generation failed")
	return cause
}

// notify sends a lifecycle event when a notifier is configured.
func (s *Service) notify(ctx context.Context, event string, job *models.GenerationJob) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Notify(ctx, event, job); err != nil {
		s.deps.Logger.WithGenerationID(job.ID).WithError(err).
			Warnf("Failed to send %s notification", event)
	}
}

// recordRenderError stores a render failure message on the job without
// changing its completed status. The subtitles stay valid and the render
// can be requested again.
func (s *Service) recordRenderError(ctx context.Context, id string, cause error) {
	if _, err := s.deps.Store.Update(ctx, id, func(j *models.GenerationJob) {
		j.ErrorMsg = cause.Error()
	}); err != nil {
		s.deps.Logger.WithGenerationID(id).WithError(err).Error("Failed to record render failure")
	}
}
