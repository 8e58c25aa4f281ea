package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prop-ie/snag-api/internal/repository"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}
func (failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}
func (failingCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("connection refused")
}

func TestSnagKey(t *testing.T) {
	assert.Equal(t, "snag:list-1:detail", SnagKey("list-1", "detail"))
	assert.Equal(t, "snag:list-1:*", SnagKey("list-1", "*"))
}

func TestCacheServiceRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	metrics := NewMetricsService()
	cache := NewCacheService(repository.NewLocalCacheRepository(16, time.Minute), metrics, 0, nil, true)

	require.NoError(t, cache.Set(ctx, SnagKey("a", "detail"), map[string]int{"n": 1}, 0))
	require.NoError(t, cache.Set(ctx, SnagKey("b", "detail"), map[string]int{"n": 2}, 0))

	var got map[string]int
	hit, err := cache.Get(ctx, SnagKey("a", "detail"), &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, got["n"])

	require.NoError(t, cache.InvalidateSnagList(ctx, "a"))
	hit, err = cache.Get(ctx, SnagKey("a", "detail"), &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.InvalidateAll(ctx))
	hit, _ = cache.Get(ctx, SnagKey("b", "detail"), &got)
	assert.False(t, hit)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(2), snapshot.CacheMisses)
}

func TestCacheServiceDisabled(t *testing.T) {
	cache := NewCacheService(failingCacheRepo{}, nil, 0, nil, false)
	hit, err := cache.Get(context.Background(), "k", &struct{}{})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Set(context.Background(), "k", 1, 0))
	assert.NoError(t, cache.InvalidateAll(context.Background()))
}

func TestCacheServiceBackendFailure(t *testing.T) {
	cache := NewCacheService(failingCacheRepo{}, nil, 0, nil, true)
	hit, err := cache.Get(context.Background(), "k", &struct{}{})
	assert.Error(t, err)
	assert.False(t, hit)
}
