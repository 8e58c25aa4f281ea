package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prop-ie/snag-api/internal/dto"
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/repository"
	"github.com/prop-ie/snag-api/pkg/clock"
	appErrors "github.com/prop-ie/snag-api/pkg/errors"
)

type snagListReader interface {
	GetByID(ctx context.Context, id string) (*models.SnagList, error)
}

type snagItemStore interface {
	GetByID(ctx context.Context, listID, itemID string) (*models.SnagItem, error)
	Create(ctx context.Context, item *models.SnagItem, actor repository.AuditActor) error
	Update(ctx context.Context, listID, itemID string, patch repository.SnagItemPatch, actor repository.AuditActor, now time.Time) (*repository.SnagItemUpdateResult, error)
	AddUpdate(ctx context.Context, update *models.SnagItemUpdate) error
}

// SnagItemService manages items of a snag list and their update log.
type SnagItemService struct {
	lists     snagListReader
	items     snagItemStore
	cache     *CacheService
	events    eventDispatcher
	validator *validator.Validate
	clock     clock.Clock
	logger    *zap.Logger
}

// NewSnagItemService constructs a SnagItemService.
func NewSnagItemService(lists snagListReader, items snagItemStore, cache *CacheService, events eventDispatcher, validate *validator.Validate, clk clock.Clock, logger *zap.Logger) *SnagItemService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnagItemService{lists: lists, items: items, cache: cache, events: events, validator: validate, clock: clk, logger: logger}
}

// Create adds an item to an active snag list.
func (s *SnagItemService) Create(ctx context.Context, listID string, req dto.CreateSnagItemRequest, actor Actor) (*models.SnagItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid snag item payload")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, appErrors.WithDetails("invalid snag item payload", appErrors.FieldError{Field: "title", Rule: "required", Message: "title is required"})
	}

	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, translateNotFound(err, "snag list not found", "failed to load snag list")
	}
	if list.Status == models.SnagListStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot add items to a cancelled snag list")
	}

	now := s.clock.Now()
	item := &models.SnagItem{
		SnagListID:  listID,
		Title:       title,
		Description: req.Description,
		Location:    req.Location,
		Status:      models.SnagItemStatusOpen,
		Priority:    req.Priority,
		Category:    strings.TrimSpace(req.Category),
		AssignedTo:  req.AssignedTo,
		TargetDate:  req.TargetDate,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if item.Priority == "" {
		item.Priority = models.SnagPriorityMedium
	}
	if err := s.items.Create(ctx, item, actor.audit()); err != nil {
		return nil, appErrors.Internal(err, "failed to create snag item")
	}

	s.afterChange(ctx, models.SnagEvent{
		Type:       models.SnagEventItemCreated,
		SnagListID: listID,
		SnagItemID: item.ID,
		ActorID:    actor.ID,
		Payload:    map[string]interface{}{"title": item.Title, "priority": item.Priority},
	})
	return item, nil
}

// Update patches an item. Status, priority and assignment changes land in the item's update log.
func (s *SnagItemService) Update(ctx context.Context, listID, itemID string, req dto.UpdateSnagItemRequest, actor Actor) (*models.SnagItem, error) {
	if req.IsEmpty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patch must contain at least one field")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid snag item patch")
	}

	patch := repository.SnagItemPatch{
		Description:     req.Description.Ptr(),
		Location:        req.Location.Ptr(),
		Category:        req.Category.Ptr(),
		CompletionNotes: req.CompletionNotes.Ptr(),
	}
	if req.Title.Valid {
		title := strings.TrimSpace(req.Title.String)
		if title == "" {
			return nil, appErrors.WithDetails("invalid snag item patch", appErrors.FieldError{Field: "title", Rule: "required", Message: "title cannot be blank"})
		}
		patch.Title = &title
	}
	if req.Status.Valid {
		status := models.SnagItemStatus(req.Status.String)
		patch.Status = &status
	}
	if req.Priority.Valid {
		priority := models.SnagPriority(req.Priority.String)
		patch.Priority = &priority
	}
	if req.AssignedTo.Valid {
		assignee := strings.TrimSpace(req.AssignedTo.String)
		patch.AssignedTo = &assignee
	}
	if req.TargetDate.Valid {
		target := req.TargetDate.Time.UTC()
		patch.TargetDate = &target
	}

	result, err := s.items.Update(ctx, listID, itemID, patch, actor.audit(), s.clock.Now())
	if err != nil {
		return nil, translateNotFound(err, "snag item not found", "failed to update snag item")
	}

	changes := make([]string, 0, len(result.Logged))
	for _, entry := range result.Logged {
		changes = append(changes, string(entry.UpdateType))
	}
	s.afterChange(ctx, models.SnagEvent{
		Type:       models.SnagEventItemUpdated,
		SnagListID: listID,
		SnagItemID: itemID,
		ActorID:    actor.ID,
		Payload:    map[string]interface{}{"changes": changes, "status": result.Current.Status},
	})
	return &result.Current, nil
}

// AddComment appends a COMMENT entry to an item's update log.
func (s *SnagItemService) AddComment(ctx context.Context, listID, itemID string, req dto.AddSnagItemUpdateRequest, actor Actor) (*models.SnagItemUpdate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid comment payload")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, appErrors.WithDetails("invalid comment payload", appErrors.FieldError{Field: "content", Rule: "required", Message: "content is required"})
	}
	if _, err := s.items.GetByID(ctx, listID, itemID); err != nil {
		return nil, translateNotFound(err, "snag item not found", "failed to load snag item")
	}

	update := &models.SnagItemUpdate{
		SnagItemID: itemID,
		UpdateType: models.SnagUpdateComment,
		Content:    content,
		AuthorID:   actor.ID,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.items.AddUpdate(ctx, update); err != nil {
		return nil, appErrors.Internal(err, "failed to add comment")
	}

	s.afterChange(ctx, models.SnagEvent{
		Type:       models.SnagEventItemCommented,
		SnagListID: listID,
		SnagItemID: itemID,
		ActorID:    actor.ID,
	})
	return update, nil
}

func (s *SnagItemService) afterChange(ctx context.Context, event models.SnagEvent) {
	if err := s.cache.InvalidateSnagList(ctx, event.SnagListID); err != nil {
		s.logger.Warn("snag list cache invalidation failed", zap.String("snag_list_id", event.SnagListID), zap.Error(err))
	}
	if s.events != nil {
		s.events.Dispatch(event)
	}
}
