// Package jobstore owns the lifecycle storage of generation jobs: an
// ephemeral keyed store with expiry holds live and recently finished jobs,
// and completed jobs are mirrored into durable storage which outlives the
// ephemeral entry and is authoritative once written.
package jobstore

import (
	"context"
	"errors"

	"github.com/captionforge/captionforge/pkg/models"
)

// Store is the job storage contract the pipeline depends on. Callers never
// know which backing store answered a given query.
type Store interface {
	// Create writes a fresh job record to the ephemeral store.
	Create(ctx context.Context, job *models.GenerationJob) error

	// Get looks a job up by id, checking the ephemeral store first and
	// falling back to durable storage. models.ErrNotFound when neither
	// has a record.
	Get(ctx context.Context, id string) (*models.GenerationJob, error)

	// Update applies mutate to the current record and writes it back,
	// refreshing the TTL. Jobs whose ephemeral entry has expired are
	// re-read from durable storage, and terminal jobs are written back
	// to the mirror so both stores serve the same content. This is
	// read-modify-write, not compare-and-swap: concurrent writers to
	// the same id can lose updates.
	Update(ctx context.Context, id string, mutate func(*models.GenerationJob)) (*models.GenerationJob, error)

	// Mirror writes the completed job into durable storage.
	Mirror(ctx context.Context, job *models.GenerationJob) error
}

// Durable is the durable side of the dual store, implemented by the
// database repository.
type Durable interface {
	SaveGeneration(ctx context.Context, job *models.GenerationJob) error
	// GetGeneration returns models.ErrNotFound when no mirror exists.
	GetGeneration(ctx context.Context, id string) (*models.GenerationJob, error)
}

// Dual composes the ephemeral Redis store with a durable mirror.
type Dual struct {
	ephemeral *Redis
	durable   Durable
}

// NewDual creates the dual store.
func NewDual(ephemeral *Redis, durable Durable) *Dual {
	return &Dual{ephemeral: ephemeral, durable: durable}
}

var _ Store = (*Dual)(nil)

// Create writes a fresh job record to the ephemeral store.
func (d *Dual) Create(ctx context.Context, job *models.GenerationJob) error {
	return d.ephemeral.Put(ctx, job)
}

// Get checks the ephemeral store first, then the durable mirror.
func (d *Dual) Get(ctx context.Context, id string) (*models.GenerationJob, error) {
	job, err := d.ephemeral.Get(ctx, id)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	return d.durable.GetGeneration(ctx, id)
}

// Update reads the current record, applies mutate and writes it back with
// a refreshed TTL. An expired ephemeral entry is re-seeded from the
// durable mirror, and terminal jobs are mirrored again after the mutation
// so post-completion edits survive expiry.
func (d *Dual) Update(ctx context.Context, id string, mutate func(*models.GenerationJob)) (*models.GenerationJob, error) {
	job, err := d.ephemeral.Get(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		job, err = d.durable.GetGeneration(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	mutate(job)

	if err := d.ephemeral.Put(ctx, job); err != nil {
		return nil, err
	}

	if job.Terminal() {
		if err := d.durable.SaveGeneration(ctx, job); err != nil {
			return nil, err
		}
	}

	return job, nil
}

// Mirror writes the job into durable storage.
func (d *Dual) Mirror(ctx context.Context, job *models.GenerationJob) error {
	return d.durable.SaveGeneration(ctx, job)
}
