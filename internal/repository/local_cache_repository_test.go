package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prop-ie/snag-api/internal/models"
	appErrors "github.com/prop-ie/snag-api/pkg/errors"
)

func TestLocalCacheRepositoryRoundTripAndPatternDelete(t *testing.T) {
	repo := NewLocalCacheRepository(8, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "snag:list-1:detail", map[string]int{"total": 3}, 0))
	require.NoError(t, repo.Set(ctx, "snag:list-1:timeline:20", []string{"a"}, 0))
	require.NoError(t, repo.Set(ctx, "snag:list-2:detail", map[string]int{"total": 1}, 0))

	var got map[string]int
	require.NoError(t, repo.Get(ctx, "snag:list-1:detail", &got))
	assert.Equal(t, 3, got["total"])

	require.NoError(t, repo.DeleteByPattern(ctx, "snag:list-1:*"))
	assert.ErrorIs(t, repo.Get(ctx, "snag:list-1:detail", &got), appErrors.ErrCacheMiss)
	assert.ErrorIs(t, repo.Get(ctx, "snag:list-1:timeline:20", &got), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Get(ctx, "snag:list-2:detail", &got))
}

func TestCacheRepositoryWithoutClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest map[string]int
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", 1, time.Second))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
}

func TestEventPublisherWithoutClientIsNoop(t *testing.T) {
	receivers, err := NewEventPublisher(nil, "propie:snag-events").Publish(context.Background(), models.SnagEvent{Type: models.SnagEventListCreated, SnagListID: "list-1"})
	require.NoError(t, err)
	assert.Zero(t, receivers)
}
