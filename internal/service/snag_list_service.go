package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prop-ie/snag-api/internal/analytics"
	"github.com/prop-ie/snag-api/internal/dto"
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/repository"
	"github.com/prop-ie/snag-api/pkg/clock"
	appErrors "github.com/prop-ie/snag-api/pkg/errors"
)

const (
	defaultSnagListPageSize = 20
	maxSnagListPageSize     = 100
	maxTimelineLimit        = 100
	defaultUpdatesPerItem   = 10
)

type snagListStore interface {
	List(ctx context.Context, filter models.SnagListFilter) ([]repository.SnagListRow, int, error)
	GetByID(ctx context.Context, id string) (*models.SnagList, error)
	GetWithItems(ctx context.Context, id string, updatesPerItem int) (*models.SnagList, error)
	Create(ctx context.Context, list *models.SnagList, actor repository.AuditActor) error
	Update(ctx context.Context, id string, patch repository.SnagListPatch, actor repository.AuditActor, now time.Time) (*repository.SnagListUpdateResult, error)
	SoftDelete(ctx context.Context, id string, actor repository.AuditActor, now time.Time) (*models.SnagList, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.OverdueSummary, error)
}

type snagUpdateLog interface {
	ListRecentUpdates(ctx context.Context, listID string, limit int) ([]models.SnagUpdateEntry, error)
}

type eventDispatcher interface {
	Dispatch(event models.SnagEvent)
}

// SnagListServiceConfig tunes payload sizes and caching.
type SnagListServiceConfig struct {
	CacheTTL       time.Duration
	TimelineLimit  int
	UpdatesPerItem int
}

// SnagListService serves snag list reads through the analytics engine and applies list mutations.
type SnagListService struct {
	lists     snagListStore
	updates   snagUpdateLog
	cache     *CacheService
	events    eventDispatcher
	metrics   *MetricsService
	validator *validator.Validate
	clock     clock.Clock
	logger    *zap.Logger
	cfg       SnagListServiceConfig
}

// NewSnagListService wires the service dependencies. cache, events and metrics may be nil.
func NewSnagListService(lists snagListStore, updates snagUpdateLog, cache *CacheService, events eventDispatcher, metrics *MetricsService, validate *validator.Validate, clk clock.Clock, logger *zap.Logger, cfg SnagListServiceConfig) *SnagListService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TimelineLimit <= 0 {
		cfg.TimelineLimit = analytics.DefaultTimelineLimit
	}
	if cfg.UpdatesPerItem <= 0 {
		cfg.UpdatesPerItem = defaultUpdatesPerItem
	}
	return &SnagListService{
		lists:     lists,
		updates:   updates,
		cache:     cache,
		events:    events,
		metrics:   metrics,
		validator: validate,
		clock:     clk,
		logger:    logger,
		cfg:       cfg,
	}
}

// List returns a page of snag lists decorated with display fields and item counts.
func (s *SnagListService) List(ctx context.Context, query dto.SnagListQuery) ([]dto.SnagListSummary, *models.Pagination, error) {
	filter, err := s.buildFilter(query)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	rows, total, err := s.lists.List(ctx, filter)
	s.metrics.ObserveDBQuery("snag_list_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list snag lists")
	}

	now := s.clock.Now()
	summaries := make([]dto.SnagListSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, dto.SnagListSummary{
			SnagListView:   analytics.View(row.SnagList, now),
			TotalItems:     row.TotalItems,
			CompletedItems: row.CompletedItems,
		})
	}
	return summaries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func (s *SnagListService) buildFilter(query dto.SnagListQuery) (models.SnagListFilter, error) {
	filter := models.SnagListFilter{
		PropertyID: strings.TrimSpace(query.PropertyID),
		Search:     strings.TrimSpace(query.Search),
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	var details []appErrors.FieldError
	for _, raw := range query.Status {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			status := models.SnagListStatus(part)
			if !status.Valid() {
				details = append(details, appErrors.FieldError{Field: "status", Rule: "oneof", Message: "unknown snag list status " + part})
				continue
			}
			filter.Status = append(filter.Status, status)
		}
	}
	if p := strings.ToUpper(strings.TrimSpace(query.Priority)); p != "" {
		filter.Priority = models.SnagPriority(p)
		if !filter.Priority.Valid() {
			details = append(details, appErrors.FieldError{Field: "priority", Rule: "oneof", Message: "unknown priority " + p})
		}
	}
	if len(details) > 0 {
		return filter, appErrors.WithDetails("invalid snag list query", details...)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultSnagListPageSize
	}
	if filter.PageSize > maxSnagListPageSize {
		filter.PageSize = maxSnagListPageSize
	}
	return filter, nil
}

// Detail returns the full snag list payload. The boolean reports whether it was served from cache.
func (s *SnagListService) Detail(ctx context.Context, id string) (*models.SnagListDetail, bool, error) {
	key := SnagKey(id, "detail")
	var cached models.SnagListDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	list, err := s.load(ctx, id)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	updates, err := s.updates.ListRecentUpdates(ctx, id, s.cfg.TimelineLimit)
	s.metrics.ObserveDBQuery("snag_list_timeline", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load snag list timeline")
	}

	start = time.Now()
	detail := analytics.Build(*list, list.Items, updates, s.clock.Now(), s.cfg.TimelineLimit)
	s.metrics.ObserveEngine("detail", time.Since(start))

	_ = s.cache.Set(ctx, key, detail, s.cfg.CacheTTL)
	return &detail, false, nil
}

// Insights returns analytics, progress and recommendations without the entity or timeline.
func (s *SnagListService) Insights(ctx context.Context, id string) (*models.SnagInsights, bool, error) {
	key := SnagKey(id, "insights")
	var cached models.SnagInsights
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	list, err := s.load(ctx, id)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	insights := analytics.Insights(list.ID, list.Items, s.clock.Now())
	s.metrics.ObserveEngine("insights", time.Since(start))

	_ = s.cache.Set(ctx, key, insights, s.cfg.CacheTTL)
	return &insights, false, nil
}

// Timeline returns the latest activity entries of a snag list, newest first.
func (s *SnagListService) Timeline(ctx context.Context, id string, limit int) ([]models.TimelineEntry, error) {
	if limit <= 0 {
		limit = s.cfg.TimelineLimit
	}
	if limit > maxTimelineLimit {
		limit = maxTimelineLimit
	}
	if _, err := s.lists.GetByID(ctx, id); err != nil {
		return nil, translateNotFound(err, "snag list not found", "failed to load snag list")
	}
	updates, err := s.updates.ListRecentUpdates(ctx, id, limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load snag list timeline")
	}
	return analytics.BuildTimeline(updates, s.clock.Now(), limit), nil
}

// Create validates and stores a new snag list owned by the actor.
func (s *SnagListService) Create(ctx context.Context, req dto.CreateSnagListRequest, actor Actor) (*models.SnagListView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid snag list payload")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.WithDetails("invalid snag list payload", appErrors.FieldError{Field: "title", Rule: "required", Message: "title is required"})
	}

	now := s.clock.Now()
	list := &models.SnagList{
		PropertyID:           req.PropertyID,
		ReservationID:        req.ReservationID,
		Title:                title,
		Description:          req.Description,
		Status:               req.Status,
		Priority:             req.Priority,
		TargetCompletionDate: req.TargetCompletionDate,
		Notes:                req.Notes,
		CreatedBy:            actor.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if list.Status == "" {
		list.Status = models.SnagListStatusDraft
	}
	if list.Priority == "" {
		list.Priority = models.SnagPriorityMedium
	}

	if err := s.lists.Create(ctx, list, actor.audit()); err != nil {
		return nil, appErrors.Internal(err, "failed to create snag list")
	}

	s.dispatch(models.SnagEvent{
		Type:       models.SnagEventListCreated,
		SnagListID: list.ID,
		ActorID:    actor.ID,
		Payload:    map[string]interface{}{"propertyId": list.PropertyID, "title": list.Title},
	})
	view := analytics.View(*list, now)
	return &view, nil
}

// Update applies a partial patch. Moving a list to COMPLETED also completes its outstanding items.
func (s *SnagListService) Update(ctx context.Context, id string, req dto.UpdateSnagListRequest, actor Actor) (*models.SnagListView, error) {
	if req.IsEmpty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patch must contain at least one field")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid snag list patch")
	}

	patch := repository.SnagListPatch{
		Description: req.Description.Ptr(),
		Notes:       req.Notes.Ptr(),
	}
	if req.Title.Valid {
		title := strings.TrimSpace(req.Title.String)
		if title == "" {
			return nil, appErrors.WithDetails("invalid snag list patch", appErrors.FieldError{Field: "title", Rule: "required", Message: "title cannot be blank"})
		}
		patch.Title = &title
	}
	if req.Status.Valid {
		status := models.SnagListStatus(req.Status.String)
		patch.Status = &status
	}
	if req.Priority.Valid {
		priority := models.SnagPriority(req.Priority.String)
		patch.Priority = &priority
	}
	if req.TargetCompletionDate.Valid {
		target := req.TargetCompletionDate.Time.UTC()
		patch.TargetCompletionDate = &target
	}

	now := s.clock.Now()
	result, err := s.lists.Update(ctx, id, patch, actor.audit(), now)
	if err != nil {
		return nil, translateNotFound(err, "snag list not found", "failed to update snag list")
	}
	s.invalidate(ctx, id)

	event := models.SnagEvent{Type: models.SnagEventListUpdated, SnagListID: id, ActorID: actor.ID}
	if result.StatusChanged() {
		event.Type = models.SnagEventListStatusChanged
		event.Payload = map[string]interface{}{
			"from":               result.Previous.Status,
			"to":                 result.Current.Status,
			"autoCompletedItems": len(result.AutoCompleted),
		}
		s.logger.Info("snag list status changed",
			zap.String("snag_list_id", id),
			zap.String("from", string(result.Previous.Status)),
			zap.String("to", string(result.Current.Status)),
			zap.Int("auto_completed", len(result.AutoCompleted)),
		)
	}
	s.dispatch(event)

	view := analytics.View(result.Current, now)
	return &view, nil
}

// Delete soft-deletes a snag list by cancelling it.
func (s *SnagListService) Delete(ctx context.Context, id string, actor Actor) error {
	list, err := s.lists.SoftDelete(ctx, id, actor.audit(), s.clock.Now())
	if err != nil {
		return translateNotFound(err, "snag list not found", "failed to delete snag list")
	}
	s.invalidate(ctx, id)
	s.dispatch(models.SnagEvent{
		Type:       models.SnagEventListDeleted,
		SnagListID: list.ID,
		ActorID:    actor.ID,
		Payload:    map[string]interface{}{"propertyId": list.PropertyID},
	})
	return nil
}

// Overdue lists active snag lists with items past their target date.
func (s *SnagListService) Overdue(ctx context.Context) ([]models.OverdueSummary, error) {
	rows, err := s.lists.ListOverdue(ctx, s.clock.Now())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list overdue snag lists")
	}
	return rows, nil
}

// InvalidateAll drops every cached snag payload. Time-bucketed analytics go stale when the date rolls over.
func (s *SnagListService) InvalidateAll(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// Invalidate drops the cached payloads of one snag list.
func (s *SnagListService) Invalidate(ctx context.Context, id string) {
	s.invalidate(ctx, id)
}

func (s *SnagListService) load(ctx context.Context, id string) (*models.SnagList, error) {
	start := time.Now()
	list, err := s.lists.GetWithItems(ctx, id, s.cfg.UpdatesPerItem)
	s.metrics.ObserveDBQuery("snag_list_detail", time.Since(start))
	if err != nil {
		return nil, translateNotFound(err, "snag list not found", "failed to load snag list")
	}
	return list, nil
}

func (s *SnagListService) invalidate(ctx context.Context, id string) {
	if err := s.cache.InvalidateSnagList(ctx, id); err != nil {
		s.logger.Warn("snag list cache invalidation failed", zap.String("snag_list_id", id), zap.Error(err))
	}
}

func (s *SnagListService) dispatch(event models.SnagEvent) {
	if s.events == nil {
		return
	}
	s.events.Dispatch(event)
}

func translateNotFound(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}
