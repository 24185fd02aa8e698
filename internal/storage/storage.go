// Package storage provides persistence for fetched video artifacts.
// It defines the Storage interface (port) and implementations for local disk
// and S3, so artifact bytes can outlive process memory when configured.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a stored object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Storage defines the interface for artifact byte persistence.
type Storage interface {
	// Save writes the data under the given key, overwriting any previous
	// object with the same key.
	Save(ctx context.Context, key string, data io.Reader) error

	// Load opens the object stored under the key.
	// The caller is responsible for closing the returned ReadCloser.
	// Returns ErrNotFound if no object exists for the key.
	Load(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object stored under the key. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, key string) error
}
