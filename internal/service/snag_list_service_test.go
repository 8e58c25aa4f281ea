package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prop-ie/snag-api/internal/dto"
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/repository"
	"github.com/prop-ie/snag-api/pkg/clock"
	appErrors "github.com/prop-ie/snag-api/pkg/errors"
)

type snagListFixture struct {
	svc     *SnagListService
	store   *fakeSnagListStore
	updates *fakeUpdateLog
	events  *recordingDispatcher
	metrics *MetricsService
}

func newSnagListFixture(t *testing.T, lists ...*models.SnagList) snagListFixture {
	t.Helper()
	store := newFakeSnagListStore(lists...)
	updates := &fakeUpdateLog{}
	events := &recordingDispatcher{}
	metrics := NewMetricsService()
	cache := NewCacheService(repository.NewLocalCacheRepository(64, time.Minute), metrics, time.Minute, nil, true)
	svc := NewSnagListService(store, updates, cache, events, metrics, nil, clock.NewFixed(serviceNow), nil, SnagListServiceConfig{TimelineLimit: 5})
	return snagListFixture{svc: svc, store: store, updates: updates, events: events, metrics: metrics}
}

func TestSnagListDetailBuildsPayloadAndCaches(t *testing.T) {
	f := newSnagListFixture(t, sampleSnagList())
	f.updates.entries = []models.SnagUpdateEntry{
		{SnagItemUpdate: models.SnagItemUpdate{ID: "u-1", SnagItemID: "item-4", UpdateType: models.SnagUpdateStatusChange, Content: "Status changed from OPEN to COMPLETED", CreatedAt: serviceNow.Add(-2 * time.Hour)}, ItemTitle: "Socket loose"},
	}
	ctx := context.Background()

	detail, hit, err := f.svc.Detail(ctx, "list-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 25, detail.Analytics.Completion.Percentage)
	assert.Equal(t, 4, detail.Analytics.Completion.TotalItems)
	assert.Equal(t, models.StatusBreakdown{Open: 1, InProgress: 1, Completed: 1, OnHold: 1}, detail.Analytics.StatusBreakdown)
	assert.Equal(t, 1, detail.Analytics.Timeline.Overdue)
	assert.Equal(t, 1, detail.Analytics.Categories["OTHER"])
	require.Len(t, detail.Timeline, 1)
	assert.Equal(t, "2 hours ago", detail.Timeline[0].TimeAgo)
	assert.Equal(t, "In Progress", detail.SnagList.StatusDisplay.Label)
	assert.Equal(t, 5, f.updates.lastLimit)
	assert.NotEmpty(t, detail.Recommendations)

	again, hit, err := f.svc.Detail(ctx, "list-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, detail.Analytics, again.Analytics)
	assert.Equal(t, 1, f.store.loads)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().EngineRuns)
}

func TestSnagListDetailNotFound(t *testing.T) {
	f := newSnagListFixture(t)
	_, _, err := f.svc.Detail(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSnagListInsights(t *testing.T) {
	f := newSnagListFixture(t, sampleSnagList())
	insights, hit, err := f.svc.Insights(context.Background(), "list-1")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "list-1", insights.SnagListID)
	assert.Equal(t, 25, insights.Progress.Overall)
	assert.Equal(t, 3, insights.Progress.RemainingItems)
}

func TestSnagListCompletionCascade(t *testing.T) {
	list := sampleSnagList()
	list.Items = list.Items[:3]
	f := newSnagListFixture(t, list)
	ctx := context.Background()

	_, _, err := f.svc.Detail(ctx, "list-1")
	require.NoError(t, err)

	view, err := f.svc.Update(ctx, "list-1", dto.UpdateSnagListRequest{Status: null.StringFrom("COMPLETED")}, Actor{ID: "inspector-1", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, models.SnagListStatusCompleted, view.Status)
	assert.Equal(t, "inspector-1", f.store.lastActor.UserID)
	assert.Equal(t, "10.0.0.1", f.store.lastActor.IPAddress)

	require.Len(t, f.events.events, 1)
	event := f.events.events[0]
	assert.Equal(t, models.SnagEventListStatusChanged, event.Type)
	assert.Equal(t, 3, event.Payload["autoCompletedItems"])
	assert.Equal(t, models.SnagListStatusCompleted, event.Payload["to"])

	detail, hit, err := f.svc.Detail(ctx, "list-1")
	require.NoError(t, err)
	assert.False(t, hit, "patch must invalidate the cached payload")
	assert.Equal(t, 100, detail.Analytics.Completion.Percentage)
	assert.Equal(t, 3, detail.Analytics.Efficiency.TotalCompletedItems)
}

func TestSnagListUpdateNonStatusPatch(t *testing.T) {
	f := newSnagListFixture(t, sampleSnagList())
	_, err := f.svc.Update(context.Background(), "list-1", dto.UpdateSnagListRequest{Title: null.StringFrom("  Renamed  ")}, Actor{ID: "user-1"})
	require.NoError(t, err)

	require.Len(t, f.store.patches, 1)
	assert.Equal(t, "Renamed", *f.store.patches[0].Title)
	assert.Nil(t, f.store.patches[0].Status)
	assert.Equal(t, []models.SnagEventType{models.SnagEventListUpdated}, f.events.types())
	assert.Equal(t, serviceNow, f.store.lastUpdated)
}

func TestSnagListUpdateValidation(t *testing.T) {
	f := newSnagListFixture(t, sampleSnagList())
	ctx := context.Background()

	_, err := f.svc.Update(ctx, "list-1", dto.UpdateSnagListRequest{}, Actor{ID: "u"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Update(ctx, "list-1", dto.UpdateSnagListRequest{Status: null.StringFrom("ARCHIVED")}, Actor{ID: "u"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "status", appErr.Details[0].Field)

	_, err = f.svc.Update(ctx, "list-1", dto.UpdateSnagListRequest{Title: null.StringFrom("   ")}, Actor{ID: "u"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.Update(ctx, "missing", dto.UpdateSnagListRequest{Notes: null.StringFrom("x")}, Actor{ID: "u"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	assert.Empty(t, f.store.patches)
	assert.Empty(t, f.events.events)
}

func TestSnagListUpdateStoreFailure(t *testing.T) {
	f := newSnagListFixture(t, sampleSnagList())
	f.store.updateErr = errors.New("insert audit log: connection reset")

	_, err := f.svc.Update(context.Background(), "list-1", dto.UpdateSnagListRequest{Status: null.StringFrom("COMPLETED")}, Actor{ID: "u"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.Empty(t, f.events.events)
}

func TestSnagListCreateDefaults(t *testing.T) {
	f := newSnagListFixture(t)
	view, err := f.svc.Create(context.Background(), dto.CreateSnagListRequest{PropertyID: "prop-9", Title: " Apartment 4B "}, Actor{ID: "inspector-1"})
	require.NoError(t, err)

	assert.Equal(t, "Apartment 4B", view.Title)
	assert.Equal(t, models.SnagListStatusDraft, view.Status)
	assert.Equal(t, models.SnagPriorityMedium, view.Priority)
	assert.Equal(t, "inspector-1", view.CreatedBy)
	assert.Equal(t, serviceNow, view.CreatedAt)
	assert.Equal(t, "Just now", view.CreatedAgo)
	assert.Equal(t, []models.SnagEventType{models.SnagEventListCreated}, f.events.types())

	_, err = f.svc.Create(context.Background(), dto.CreateSnagListRequest{Title: "no property"}, Actor{ID: "inspector-1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSnagListDelete(t *testing.T) {
	f := newSnagListFixture(t, sampleSnagList())
	require.NoError(t, f.svc.Delete(context.Background(), "list-1", Actor{ID: "admin-1"}))
	assert.Equal(t, []string{"list-1"}, f.store.deleted)
	assert.Equal(t, []models.SnagEventType{models.SnagEventListDeleted}, f.events.types())

	err := f.svc.Delete(context.Background(), "missing", Actor{ID: "admin-1"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSnagListListFilters(t *testing.T) {
	f := newSnagListFixture(t)
	list := sampleSnagList()
	f.store.rows = []repository.SnagListRow{{SnagList: *list, TotalItems: 4, CompletedItems: 1}}
	f.store.total = 31

	summaries, page, err := f.svc.List(context.Background(), dto.SnagListQuery{
		PropertyID: " prop-1 ",
		Status:     []string{"in_progress,under_review"},
		Priority:   "high",
		PageSize:   500,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 4, summaries[0].TotalItems)
	assert.Equal(t, "High", summaries[0].PriorityDisplay.Label)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 100, TotalCount: 31}, page)

	assert.Equal(t, "prop-1", f.store.lastFilter.PropertyID)
	assert.Equal(t, []models.SnagListStatus{models.SnagListStatusInProgress, models.SnagListStatusUnderReview}, f.store.lastFilter.Status)
	assert.Equal(t, models.SnagPriorityHigh, f.store.lastFilter.Priority)

	_, _, err = f.svc.List(context.Background(), dto.SnagListQuery{Status: []string{"BOGUS"}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSnagListTimelineLimit(t *testing.T) {
	f := newSnagListFixture(t, sampleSnagList())
	for i := 0; i < 3; i++ {
		f.updates.entries = append(f.updates.entries, models.SnagUpdateEntry{SnagItemUpdate: models.SnagItemUpdate{
			ID: "u", SnagItemID: "item-1", UpdateType: models.SnagUpdateComment, CreatedAt: serviceNow.Add(-time.Duration(i+1) * time.Minute),
		}})
	}

	entries, err := f.svc.Timeline(context.Background(), "list-1", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "1 minute ago", entries[0].TimeAgo)

	_, err = f.svc.Timeline(context.Background(), "list-1", 1000)
	require.NoError(t, err)
	assert.Equal(t, maxTimelineLimit, f.updates.lastLimit)

	_, err = f.svc.Timeline(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
