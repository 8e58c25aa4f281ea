package repository

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	appErrors "github.com/prop-ie/snag-api/pkg/errors"
)

// LocalCacheRepository is an in-process TTL cache used when Redis is disabled.
type LocalCacheRepository struct {
	entries *expirable.LRU[string, []byte]
}

// NewLocalCacheRepository constructs an LRU bounded to size entries that expire after ttl.
func NewLocalCacheRepository(size int, ttl time.Duration) *LocalCacheRepository {
	if size <= 0 {
		size = 512
	}
	return &LocalCacheRepository{entries: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get unmarshals the cached value into dest.
func (r *LocalCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := r.entries.Get(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return decodeCached(key, raw, dest)
}

// Set stores the value. The LRU applies a single TTL, so the per-call ttl is ignored.
func (r *LocalCacheRepository) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := encodeCached(key, value)
	if err != nil {
		return err
	}
	r.entries.Add(key, payload)
	return nil
}

// DeleteByPattern removes entries whose key matches a glob pattern.
func (r *LocalCacheRepository) DeleteByPattern(_ context.Context, pattern string) error {
	for _, key := range r.entries.Keys() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("match cache pattern %s: %w", pattern, err)
		}
		if matched {
			r.entries.Remove(key)
		}
	}
	return nil
}

// Close drops every entry.
func (r *LocalCacheRepository) Close() error {
	r.entries.Purge()
	return nil
}
