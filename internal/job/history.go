package job

import (
	"context"
	"errors"
	"sync"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// History is the ordered collection of job records, newest first.
// It is the single source of truth read by the presentation layer and is
// mutated only by the Service: new records are prepended, existing records
// are replaced in place by ID and never reordered.
//
// Reads hand out clones, so a snapshot taken by a reader is never touched by
// a concurrent settle-update.
type History struct {
	mu      sync.RWMutex
	ordered []*Job
	byID    map[string]*Job
}

// NewHistory creates an empty history store.
func NewHistory() *History {
	return &History{
		byID: make(map[string]*Job),
	}
}

// Insert prepends a new record. Inserting an ID that already exists is a
// programming error and is reported as such.
func (h *History) Insert(j *Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.byID[j.ID]; exists {
		return errors.New("duplicate job ID: " + j.ID)
	}

	stored := j.Clone()
	h.ordered = append([]*Job{stored}, h.ordered...)
	h.byID[stored.ID] = stored
	return nil
}

// Update replaces the record matching the job's ID in place, preserving its
// position in the ordering. Returns ErrJobNotFound for unknown IDs.
func (h *History) Update(j *Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	old, ok := h.byID[j.ID]
	if !ok {
		return ErrJobNotFound
	}

	stored := j.Clone()
	for i, rec := range h.ordered {
		if rec == old {
			h.ordered[i] = stored
			break
		}
	}
	h.byID[stored.ID] = stored
	return nil
}

// Find returns a clone of the record with the given ID.
func (h *History) Find(jobID string) (*Job, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rec, ok := h.byID[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return rec.Clone(), nil
}

// List returns a snapshot of all records, newest first.
func (h *History) List() []*Job {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Job, len(h.ordered))
	for i, rec := range h.ordered {
		out[i] = rec.Clone()
	}
	return out
}

// Len returns the number of records.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ordered)
}

// Clear discards all records and releases every artifact handle they own.
// The release callback is invoked outside the store lock; release failures
// do not stop the remaining handles from being released and the first error
// is returned.
func (h *History) Clear(ctx context.Context, release func(ctx context.Context, artifactID string) error) error {
	h.mu.Lock()
	cleared := h.ordered
	h.ordered = nil
	h.byID = make(map[string]*Job)
	h.mu.Unlock()

	if release == nil {
		return nil
	}

	var firstErr error
	for _, rec := range cleared {
		if rec.ArtifactID == "" {
			continue
		}
		if err := release(ctx, rec.ArtifactID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
