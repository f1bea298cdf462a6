// Package storage provides the local key-value persistence the session
// manager and prefetch steps write to. Values are plain strings; structured
// data is stored as JSON blobs by the callers.
package storage

import (
	"context"
	"errors"
)

// Common storage errors
var (
	// ErrNotFound is returned when a key has no value
	ErrNotFound = errors.New("key not found")
)

// Store is the persistence seam. Implementations must treat SetMulti as
// atomic: either every key in the batch is persisted or none are.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetMulti(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}
