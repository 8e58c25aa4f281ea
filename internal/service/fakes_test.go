package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/repository"
)

var serviceNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }

type fakeSnagListStore struct {
	lists       map[string]*models.SnagList
	rows        []repository.SnagListRow
	total       int
	lastFilter  models.SnagListFilter
	loads       int
	created     []*models.SnagList
	patches     []repository.SnagListPatch
	deleted     []string
	overdue     []models.OverdueSummary
	updateErr   error
	listErr     error
	lastActor   repository.AuditActor
	lastUpdated time.Time
}

func newFakeSnagListStore(lists ...*models.SnagList) *fakeSnagListStore {
	store := &fakeSnagListStore{lists: map[string]*models.SnagList{}}
	for _, l := range lists {
		store.lists[l.ID] = l
	}
	return store
}

func (f *fakeSnagListStore) List(_ context.Context, filter models.SnagListFilter) ([]repository.SnagListRow, int, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.rows, f.total, nil
}

func (f *fakeSnagListStore) GetByID(_ context.Context, id string) (*models.SnagList, error) {
	list, ok := f.lists[id]
	if !ok {
		return nil, fmt.Errorf("get snag list: %w", sql.ErrNoRows)
	}
	copied := *list
	return &copied, nil
}

func (f *fakeSnagListStore) GetWithItems(ctx context.Context, id string, _ int) (*models.SnagList, error) {
	f.loads++
	return f.GetByID(ctx, id)
}

func (f *fakeSnagListStore) Create(_ context.Context, list *models.SnagList, actor repository.AuditActor) error {
	if list.ID == "" {
		list.ID = fmt.Sprintf("list-%d", len(f.created)+1)
	}
	f.lastActor = actor
	f.created = append(f.created, list)
	f.lists[list.ID] = list
	return nil
}

// Update mirrors the repository semantics: COMPLETED closes every outstanding item.
func (f *fakeSnagListStore) Update(_ context.Context, id string, patch repository.SnagListPatch, actor repository.AuditActor, now time.Time) (*repository.SnagListUpdateResult, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	list, ok := f.lists[id]
	if !ok {
		return nil, fmt.Errorf("lock snag list: %w", sql.ErrNoRows)
	}
	f.patches = append(f.patches, patch)
	f.lastActor = actor
	f.lastUpdated = now

	result := &repository.SnagListUpdateResult{Previous: *list}
	if patch.Title != nil {
		list.Title = *patch.Title
	}
	if patch.Status != nil {
		list.Status = *patch.Status
	}
	if patch.Priority != nil {
		list.Priority = *patch.Priority
	}
	if patch.TargetCompletionDate != nil {
		list.TargetCompletionDate = patch.TargetCompletionDate
	}
	list.UpdatedAt = now
	result.Current = *list
	if result.StatusChanged() && list.Status == models.SnagListStatusCompleted {
		for i := range list.Items {
			if list.Items[i].Status != models.SnagItemStatusCompleted {
				list.Items[i].Status = models.SnagItemStatusCompleted
				list.Items[i].CompletedDate = ptrTime(now)
				result.AutoCompleted = append(result.AutoCompleted, list.Items[i].ID)
			}
		}
	}
	return result, nil
}

func (f *fakeSnagListStore) SoftDelete(_ context.Context, id string, actor repository.AuditActor, now time.Time) (*models.SnagList, error) {
	list, ok := f.lists[id]
	if !ok {
		return nil, fmt.Errorf("lock snag list: %w", sql.ErrNoRows)
	}
	list.Status = models.SnagListStatusCancelled
	list.UpdatedAt = now
	f.lastActor = actor
	f.deleted = append(f.deleted, id)
	copied := *list
	return &copied, nil
}

func (f *fakeSnagListStore) ListOverdue(context.Context, time.Time) ([]models.OverdueSummary, error) {
	return f.overdue, nil
}

type fakeUpdateLog struct {
	entries   []models.SnagUpdateEntry
	lastLimit int
}

func (f *fakeUpdateLog) ListRecentUpdates(_ context.Context, _ string, limit int) ([]models.SnagUpdateEntry, error) {
	f.lastLimit = limit
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []models.SnagEvent
}

func (d *recordingDispatcher) Dispatch(event models.SnagEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *recordingDispatcher) types() []models.SnagEventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.SnagEventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}

func sampleSnagList() *models.SnagList {
	created := serviceNow.AddDate(0, 0, -10)
	return &models.SnagList{
		ID:         "list-1",
		PropertyID: "prop-1",
		Title:      "Unit 12 handover",
		Status:     models.SnagListStatusInProgress,
		Priority:   models.SnagPriorityHigh,
		CreatedBy:  "user-1",
		CreatedAt:  created,
		UpdatedAt:  created,
		Items: []models.SnagItem{
			{ID: "item-1", SnagListID: "list-1", Title: "Cracked tile", Status: models.SnagItemStatusOpen, Priority: models.SnagPriorityHigh, Category: "Flooring", CreatedAt: created, TargetDate: ptrTime(serviceNow.AddDate(0, 0, -1))},
			{ID: "item-2", SnagListID: "list-1", Title: "Door sticks", Status: models.SnagItemStatusInProgress, Priority: models.SnagPriorityMedium, CreatedAt: created},
			{ID: "item-3", SnagListID: "list-1", Title: "Paint scuff", Status: models.SnagItemStatusOnHold, Priority: models.SnagPriorityLow, Category: "Decoration", CreatedAt: created},
			{ID: "item-4", SnagListID: "list-1", Title: "Socket loose", Status: models.SnagItemStatusCompleted, Priority: models.SnagPriorityCritical, Category: "Electrical", CreatedAt: created, CompletedDate: ptrTime(serviceNow.AddDate(0, 0, -5))},
		},
	}
}
