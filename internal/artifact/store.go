// Package artifact provides retrieval and ownership of generated video
// artifacts. Fetched bytes are written through a storage backend and exposed
// as revocable handles; a handle stays valid until the owner of its job
// record releases it.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/veogen/veogen-api/internal/storage"
)

// ErrHandleNotFound is returned when a handle ID is unknown or already released.
var ErrHandleNotFound = errors.New("artifact: handle not found")

// Handle is a locally-scoped, revocable reference to stored artifact bytes.
type Handle struct {
	// ID is the unique handle identifier.
	ID string
	// Size is the artifact length in bytes.
	Size int64
	// ContentType is the media type of the artifact.
	ContentType string
}

// Store owns the mapping from handle IDs to stored artifact bytes.
// Every handle it hands out must eventually be released; releasing removes
// the backing object so artifact bytes never outlive their job record.
type Store struct {
	mu      sync.RWMutex
	backend storage.Storage
	handles map[string]Handle
}

// NewStore creates a handle store over the given storage backend.
func NewStore(backend storage.Storage) *Store {
	return &Store{
		backend: backend,
		handles: make(map[string]Handle),
	}
}

// Put stores the artifact bytes and returns a new handle for them.
func (s *Store) Put(ctx context.Context, data []byte, contentType string) (Handle, error) {
	h := Handle{
		ID:          uuid.NewString(),
		Size:        int64(len(data)),
		ContentType: contentType,
	}

	if err := s.backend.Save(ctx, h.ID, bytes.NewReader(data)); err != nil {
		return Handle{}, fmt.Errorf("artifact: store bytes: %w", err)
	}

	s.mu.Lock()
	s.handles[h.ID] = h
	s.mu.Unlock()

	return h, nil
}

// Open returns a reader over the artifact bytes for a handle.
// The caller is responsible for closing the returned ReadCloser.
func (s *Store) Open(ctx context.Context, id string) (io.ReadCloser, Handle, error) {
	s.mu.RLock()
	h, ok := s.handles[id]
	s.mu.RUnlock()
	if !ok {
		return nil, Handle{}, ErrHandleNotFound
	}

	rc, err := s.backend.Load(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, Handle{}, ErrHandleNotFound
		}
		return nil, Handle{}, fmt.Errorf("artifact: load bytes: %w", err)
	}

	return rc, h, nil
}

// Release revokes a handle and removes its backing object.
// Releasing an unknown or already-released handle is not an error.
func (s *Store) Release(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.handles[id]
	delete(s.handles, id)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("artifact: delete bytes: %w", err)
	}
	return nil
}

// Len returns the number of live handles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handles)
}
