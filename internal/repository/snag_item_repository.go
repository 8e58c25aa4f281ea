package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prop-ie/snag-api/internal/models"
)

var snagItemColumns = []string{
	"id", "snag_list_id", "title", "description", "location", "status", "priority", "category",
	"assigned_to", "target_date", "completed_date", "completion_notes", "created_by", "created_at", "updated_at",
}

// SnagItemPatch carries the columns to change; nil fields are left untouched.
type SnagItemPatch struct {
	Title           *string
	Description     *string
	Location        *string
	Status          *models.SnagItemStatus
	Priority        *models.SnagPriority
	Category        *string
	AssignedTo      *string
	TargetDate      *time.Time
	CompletionNotes *string
}

// SnagItemUpdateResult holds the item before and after a patch plus the log entries appended for it.
type SnagItemUpdateResult struct {
	Previous models.SnagItem
	Current  models.SnagItem
	Logged   []models.SnagItemUpdate
}

// SnagItemRepository persists snag items and their update log.
type SnagItemRepository struct {
	db *sqlx.DB
}

// NewSnagItemRepository constructs the repository.
func NewSnagItemRepository(db *sqlx.DB) *SnagItemRepository {
	return &SnagItemRepository{db: db}
}

// GetByID fetches an item scoped to its snag list.
func (r *SnagItemRepository) GetByID(ctx context.Context, listID, itemID string) (*models.SnagItem, error) {
	query := fmt.Sprintf("SELECT %s FROM snag_items WHERE id = $1 AND snag_list_id = $2", strings.Join(snagItemColumns, ", "))
	var item models.SnagItem
	if err := r.db.GetContext(ctx, &item, query, itemID, listID); err != nil {
		return nil, fmt.Errorf("get snag item: %w", err)
	}
	return &item, nil
}

// Create inserts an item and its creation audit entry.
func (r *SnagItemRepository) Create(ctx context.Context, item *models.SnagItem, actor AuditActor) (err error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create snag item: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := psql.Insert("snag_items").Columns(snagItemColumns...).Values(
		item.ID, item.SnagListID, item.Title, item.Description, item.Location, string(item.Status),
		string(item.Priority), item.Category, item.AssignedTo, item.TargetDate, item.CompletedDate,
		item.CompletionNotes, item.CreatedBy, item.CreatedAt, item.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert snag item: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert snag item: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE snag_lists SET updated_at = $1 WHERE id = $2`, item.CreatedAt, item.SnagListID); err != nil {
		return fmt.Errorf("touch snag list: %w", err)
	}

	audit, err := newAuditLog(actor, models.AuditActionSnagItemCreated, models.AuditResourceSnagItem, item.ID, nil, item, item.CreatedAt)
	if err != nil {
		return err
	}
	if err = insertAuditLog(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create snag item: %w", err)
	}
	return nil
}

// Update applies a patch atomically. Status, priority and assignment changes are appended to the item's
// update log; moving an item to COMPLETED stamps its completion date, moving it away clears it.
func (r *SnagItemRepository) Update(ctx context.Context, listID, itemID string, patch SnagItemPatch, actor AuditActor, now time.Time) (_ *SnagItemUpdateResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update snag item: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result := &SnagItemUpdateResult{}
	lockQuery := fmt.Sprintf("SELECT %s FROM snag_items WHERE id = $1 AND snag_list_id = $2 FOR UPDATE", strings.Join(snagItemColumns, ", "))
	if err = tx.GetContext(ctx, &result.Previous, lockQuery, itemID, listID); err != nil {
		return nil, fmt.Errorf("lock snag item: %w", err)
	}
	prev := result.Previous

	changes := map[string]interface{}{"updated_at": now}
	if patch.Title != nil {
		changes["title"] = *patch.Title
	}
	if patch.Description != nil {
		changes["description"] = *patch.Description
	}
	if patch.Location != nil {
		changes["location"] = *patch.Location
	}
	if patch.Category != nil {
		changes["category"] = *patch.Category
	}
	if patch.TargetDate != nil {
		changes["target_date"] = *patch.TargetDate
	}
	if patch.CompletionNotes != nil {
		changes["completion_notes"] = *patch.CompletionNotes
	}

	var logs []models.SnagItemUpdate
	appendLog := func(kind models.SnagUpdateType, content string) {
		logs = append(logs, models.SnagItemUpdate{
			ID:         uuid.NewString(),
			SnagItemID: itemID,
			UpdateType: kind,
			Content:    content,
			AuthorID:   actor.UserID,
			CreatedAt:  now,
		})
	}
	if patch.Status != nil && *patch.Status != prev.Status {
		changes["status"] = string(*patch.Status)
		switch {
		case *patch.Status == models.SnagItemStatusCompleted && prev.CompletedDate == nil:
			changes["completed_date"] = now
		case *patch.Status != models.SnagItemStatusCompleted && prev.CompletedDate != nil:
			changes["completed_date"] = nil
		}
		appendLog(models.SnagUpdateStatusChange, fmt.Sprintf("Status changed from %s to %s", prev.Status, *patch.Status))
	}
	if patch.Priority != nil && *patch.Priority != prev.Priority {
		changes["priority"] = string(*patch.Priority)
		appendLog(models.SnagUpdatePriorityChange, fmt.Sprintf("Priority changed from %s to %s", prev.Priority, *patch.Priority))
	}
	prevAssignee := ""
	if prev.AssignedTo != nil {
		prevAssignee = *prev.AssignedTo
	}
	if patch.AssignedTo != nil && *patch.AssignedTo != prevAssignee {
		if *patch.AssignedTo == "" {
			changes["assigned_to"] = nil
			appendLog(models.SnagUpdateAssignment, "Assignment removed")
		} else {
			changes["assigned_to"] = *patch.AssignedTo
			appendLog(models.SnagUpdateAssignment, fmt.Sprintf("Assigned to %s", *patch.AssignedTo))
		}
	}

	query, args, err := psql.Update("snag_items").SetMap(changes).
		Where(squirrel.Eq{"id": itemID, "snag_list_id": listID}).
		Suffix("RETURNING " + strings.Join(snagItemColumns, ", ")).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update snag item: %w", err)
	}
	if err = tx.QueryRowxContext(ctx, query, args...).StructScan(&result.Current); err != nil {
		return nil, fmt.Errorf("update snag item: %w", err)
	}

	for i := range logs {
		if err = insertItemUpdate(ctx, tx, &logs[i]); err != nil {
			return nil, err
		}
	}
	result.Logged = logs

	if _, err = tx.ExecContext(ctx, `UPDATE snag_lists SET updated_at = $1 WHERE id = $2`, now, listID); err != nil {
		return nil, fmt.Errorf("touch snag list: %w", err)
	}

	audit, err := newAuditLog(actor, models.AuditActionSnagItemUpdated, models.AuditResourceSnagItem, itemID, result.Previous, result.Current, now)
	if err != nil {
		return nil, err
	}
	if err = insertAuditLog(ctx, tx, audit); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update snag item: %w", err)
	}
	return result, nil
}

const insertItemUpdateQuery = `INSERT INTO snag_item_updates (id, snag_item_id, update_type, content, author_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

func insertItemUpdate(ctx context.Context, exec sqlx.ExecerContext, update *models.SnagItemUpdate) error {
	if update.ID == "" {
		update.ID = uuid.NewString()
	}
	if _, err := exec.ExecContext(ctx, insertItemUpdateQuery, update.ID, update.SnagItemID, string(update.UpdateType), update.Content, update.AuthorID, update.CreatedAt); err != nil {
		return fmt.Errorf("insert snag item update: %w", err)
	}
	return nil
}

// AddUpdate appends an entry to an item's update log.
func (r *SnagItemRepository) AddUpdate(ctx context.Context, update *models.SnagItemUpdate) error {
	if update.CreatedAt.IsZero() {
		update.CreatedAt = time.Now().UTC()
	}
	return insertItemUpdate(ctx, r.db, update)
}

// ListRecentUpdates returns the newest update log entries across every item of a snag list.
func (r *SnagItemRepository) ListRecentUpdates(ctx context.Context, listID string, limit int) ([]models.SnagUpdateEntry, error) {
	const query = `
SELECT u.id, u.snag_item_id, u.update_type, u.content, u.author_id, u.created_at, i.title AS item_title
FROM snag_item_updates u
JOIN snag_items i ON i.id = u.snag_item_id
WHERE i.snag_list_id = $1
ORDER BY u.created_at DESC, u.id ASC
LIMIT $2`
	var entries []models.SnagUpdateEntry
	if err := r.db.SelectContext(ctx, &entries, query, listID, limit); err != nil {
		return nil, fmt.Errorf("list snag list updates: %w", err)
	}
	return entries, nil
}
