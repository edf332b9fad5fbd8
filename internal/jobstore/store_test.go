package jobstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/captionforge/captionforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDurable is an in-memory stand-in for the database mirror.
type fakeDurable struct {
	mu   sync.Mutex
	jobs map[string]*models.GenerationJob
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{jobs: make(map[string]*models.GenerationJob)}
}

func (f *fakeDurable) SaveGeneration(ctx context.Context, job *models.GenerationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeDurable) GetGeneration(ctx context.Context, id string) (*models.GenerationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func setupStore(t *testing.T, ttl time.Duration) (*Dual, *miniredis.Miniredis, *fakeDurable) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	ephemeral, err := NewRedis(mr.Host(), mr.Server().Addr().Port, "", 0, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { ephemeral.Close() })

	durable := newFakeDurable()
	return NewDual(ephemeral, durable), mr, durable
}

func testJob() *models.GenerationJob {
	return &models.GenerationJob{
		ID:      "gen-1",
		VideoID: "vid-1",
		Status:  models.GenerationStatusProcessing,
		Stage:   models.StageAudioExtraction,
		Subtitles: []models.Subtitle{
			{ID: "sub-1", Index: 1, StartTime: 2, EndTime: 4, Text: "hello world"},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	store, _, _ := setupStore(t, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testJob()))

	got, err := store.Get(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, "vid-1", got.VideoID)
	assert.Equal(t, models.StageAudioExtraction, got.Stage)
	require.Len(t, got.Subtitles, 1)
	assert.Equal(t, "hello world", got.Subtitles[0].Text)
}

func TestGetUnknownIDIsNotFound(t *testing.T) {
	store, _, _ := setupStore(t, 2*time.Hour)

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUpdateReadModifyWrite(t *testing.T) {
	store, _, _ := setupStore(t, 2*time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, testJob()))

	updated, err := store.Update(ctx, "gen-1", func(j *models.GenerationJob) {
		j.Stage = models.StageTranscription
		j.Progress = 40
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageTranscription, updated.Stage)

	got, err := store.Get(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, models.StageTranscription, got.Stage)
	assert.Equal(t, 40.0, got.Progress)
}

func TestUpdateUnknownID(t *testing.T) {
	store, _, _ := setupStore(t, 2*time.Hour)

	_, err := store.Update(context.Background(), "nope", func(j *models.GenerationJob) {})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestExpiredEntryFallsBackToDurableMirror(t *testing.T) {
	store, mr, _ := setupStore(t, time.Minute)
	ctx := context.Background()

	job := testJob()
	job.Status = models.GenerationStatusCompleted
	job.Stage = models.StageCompleted
	require.NoError(t, store.Create(ctx, job))
	require.NoError(t, store.Mirror(ctx, job))

	// Simulate TTL expiry of the ephemeral record.
	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusCompleted, got.Status)
	require.Len(t, got.Subtitles, 1)
	assert.Equal(t, "hello world", got.Subtitles[0].Text)
}

func TestEphemeralAndDurableServeIdenticalContent(t *testing.T) {
	store, mr, _ := setupStore(t, time.Minute)
	ctx := context.Background()

	job := testJob()
	job.Status = models.GenerationStatusCompleted
	require.NoError(t, store.Create(ctx, job))
	require.NoError(t, store.Mirror(ctx, job))

	fromEphemeral, err := store.Get(ctx, "gen-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	fromDurable, err := store.Get(ctx, "gen-1")
	require.NoError(t, err)

	assert.Equal(t, fromEphemeral.Subtitles, fromDurable.Subtitles)
	assert.Equal(t, fromEphemeral.Status, fromDurable.Status)
}

func TestExpiredWithoutMirrorIsNotFound(t *testing.T) {
	store, mr, _ := setupStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testJob()))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "gen-1")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUpdateMirrorsEditsToCompletedJobs(t *testing.T) {
	store, mr, _ := setupStore(t, time.Minute)
	ctx := context.Background()

	job := testJob()
	job.Status = models.GenerationStatusCompleted
	job.Stage = models.StageCompleted
	job.SRTPath = "generations/gen-1/gen-1.srt"
	require.NoError(t, store.Create(ctx, job))
	require.NoError(t, store.Mirror(ctx, job))

	_, err := store.Update(ctx, "gen-1", func(j *models.GenerationJob) {
		j.Subtitles[0].Style.Color = "#FF0000"
		j.SRTPath = ""
	})
	require.NoError(t, err)

	// Expire the ephemeral entry so the durable mirror answers.
	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, "#FF0000", got.Subtitles[0].Style.Color)
	assert.Empty(t, got.SRTPath)
}

func TestUpdateAfterExpiryReseedsFromMirror(t *testing.T) {
	store, mr, _ := setupStore(t, time.Minute)
	ctx := context.Background()

	job := testJob()
	job.Status = models.GenerationStatusCompleted
	job.Stage = models.StageCompleted
	require.NoError(t, store.Create(ctx, job))
	require.NoError(t, store.Mirror(ctx, job))

	mr.FastForward(2 * time.Minute)

	updated, err := store.Update(ctx, "gen-1", func(j *models.GenerationJob) {
		j.Subtitles[0].Position = models.Position{X: 50, Y: 10}
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, updated.Subtitles[0].Position.Y)

	// The edit re-seeded the ephemeral store and reached the mirror.
	fromEphemeral, err := store.ephemeral.Get(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, fromEphemeral.Subtitles[0].Position.Y)

	mr.FastForward(2 * time.Minute)
	fromDurable, err := store.Get(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, fromDurable.Subtitles[0].Position.Y)
}

func TestUpdateDoesNotMirrorRunningJobs(t *testing.T) {
	store, _, durable := setupStore(t, 2*time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, testJob()))

	_, err := store.Update(ctx, "gen-1", func(j *models.GenerationJob) {
		j.Stage = models.StageTranscription
	})
	require.NoError(t, err)

	_, err = durable.GetGeneration(ctx, "gen-1")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestFailedJobRemainsQueryable(t *testing.T) {
	store, _, _ := setupStore(t, 2*time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, testJob()))

	_, err := store.Update(ctx, "gen-1", func(j *models.GenerationJob) {
		j.Status = models.GenerationStatusFailed
		j.ErrorMsg = "audio extraction failed: exit status 1"
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMsg, "audio extraction failed")
}
