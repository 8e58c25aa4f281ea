package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when a stored object does not exist.
var ErrObjectNotFound = errors.New("stored object not found")

// Backend stores rendered exports under opaque keys.
type Backend interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Sweeper is implemented by backends that can enumerate their own objects. It removes objects last
// written before cutoff, whether or not any export record still references them.
type Sweeper interface {
	CleanupOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}
