package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prop-ie/snag-api/internal/models"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var snagListColumns = []string{
	"id", "property_id", "reservation_id", "title", "description", "status", "priority",
	"target_completion_date", "notes", "created_by", "created_at", "updated_at",
}

func qualified(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return out
}

// SnagListRow is a snag list with its item counters, as returned by List.
type SnagListRow struct {
	models.SnagList
	TotalItems     int `db:"total_items"`
	CompletedItems int `db:"completed_items"`
}

// SnagListPatch carries the columns to change; nil fields are left untouched.
type SnagListPatch struct {
	Title                *string
	Description          *string
	Status               *models.SnagListStatus
	Priority             *models.SnagPriority
	TargetCompletionDate *time.Time
	Notes                *string
}

// SnagListUpdateResult describes the outcome of a patch.
type SnagListUpdateResult struct {
	Previous      models.SnagList
	Current       models.SnagList
	AutoCompleted []string
}

// StatusChanged reports whether the patch moved the list to a different status.
func (r SnagListUpdateResult) StatusChanged() bool {
	return r.Previous.Status != r.Current.Status
}

// SnagListRepository persists snag lists and orchestrates their multi-row writes.
type SnagListRepository struct {
	db *sqlx.DB
}

// NewSnagListRepository constructs the repository.
func NewSnagListRepository(db *sqlx.DB) *SnagListRepository {
	return &SnagListRepository{db: db}
}

func snagListConditions(filter models.SnagListFilter) squirrel.And {
	conds := squirrel.And{}
	if filter.PropertyID != "" {
		conds = append(conds, squirrel.Eq{"sl.property_id": filter.PropertyID})
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		conds = append(conds, squirrel.Eq{"sl.status": statuses})
	} else if !filter.IncludeCancelled {
		conds = append(conds, squirrel.NotEq{"sl.status": string(models.SnagListStatusCancelled)})
	}
	if filter.Priority != "" {
		conds = append(conds, squirrel.Eq{"sl.priority": string(filter.Priority)})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		conds = append(conds, squirrel.Or{
			squirrel.ILike{"sl.title": pattern},
			squirrel.ILike{"sl.description": pattern},
		})
	}
	return conds
}

// List returns a page of snag lists ordered by most recent activity, plus the total match count.
func (r *SnagListRepository) List(ctx context.Context, filter models.SnagListFilter) ([]SnagListRow, int, error) {
	conds := snagListConditions(filter)

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("snag_lists sl").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count snag lists: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count snag lists: %w", err)
	}

	columns := append(qualified("sl", snagListColumns),
		"(SELECT COUNT(*) FROM snag_items i WHERE i.snag_list_id = sl.id) AS total_items",
		"(SELECT COUNT(*) FROM snag_items i WHERE i.snag_list_id = sl.id AND i.status = 'COMPLETED') AS completed_items",
	)
	builder := psql.Select(columns...).From("snag_lists sl").Where(conds).OrderBy("sl.updated_at DESC", "sl.id ASC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		builder = builder.Limit(uint64(filter.PageSize)).Offset(uint64((page - 1) * filter.PageSize))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list snag lists: %w", err)
	}

	var rows []SnagListRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list snag lists: %w", err)
	}
	return rows, total, nil
}

// GetByID fetches a snag list without its items.
func (r *SnagListRepository) GetByID(ctx context.Context, id string) (*models.SnagList, error) {
	query := fmt.Sprintf("SELECT %s FROM snag_lists WHERE id = $1", strings.Join(snagListColumns, ", "))
	var list models.SnagList
	if err := r.db.GetContext(ctx, &list, query, id); err != nil {
		return nil, fmt.Errorf("get snag list: %w", err)
	}
	return &list, nil
}

// GetWithItems loads a snag list with its items, the latest updates of each item, photos and creator
// from a single read-only snapshot.
func (r *SnagListRepository) GetWithItems(ctx context.Context, id string, updatesPerItem int) (_ *models.SnagList, err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snag list snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var list models.SnagList
	listQuery := fmt.Sprintf("SELECT %s FROM snag_lists WHERE id = $1", strings.Join(snagListColumns, ", "))
	if err = tx.GetContext(ctx, &list, listQuery, id); err != nil {
		return nil, fmt.Errorf("get snag list: %w", err)
	}

	var creator models.UserRef
	if err = tx.GetContext(ctx, &creator, `SELECT id, full_name, role FROM users WHERE id = $1`, list.CreatedBy); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get snag list creator: %w", err)
		}
		err = nil
	} else {
		list.Creator = &creator
	}

	itemQuery := fmt.Sprintf("SELECT %s FROM snag_items WHERE snag_list_id = $1 ORDER BY created_at ASC, id ASC", strings.Join(snagItemColumns, ", "))
	var items []models.SnagItem
	if err = tx.SelectContext(ctx, &items, itemQuery, id); err != nil {
		return nil, fmt.Errorf("list snag items: %w", err)
	}

	const updatesQuery = `
SELECT id, snag_item_id, update_type, content, author_id, created_at
FROM (
	SELECT u.id, u.snag_item_id, u.update_type, u.content, u.author_id, u.created_at,
		ROW_NUMBER() OVER (PARTITION BY u.snag_item_id ORDER BY u.created_at DESC) AS rn
	FROM snag_item_updates u
	JOIN snag_items i ON i.id = u.snag_item_id
	WHERE i.snag_list_id = $1
) ranked
WHERE rn <= $2
ORDER BY created_at DESC`
	var updates []models.SnagItemUpdate
	if err = tx.SelectContext(ctx, &updates, updatesQuery, id, updatesPerItem); err != nil {
		return nil, fmt.Errorf("list snag item updates: %w", err)
	}

	const photosQuery = `
SELECT p.id, p.snag_item_id, p.url, p.caption, p.uploaded_by, p.created_at
FROM snag_photos p
JOIN snag_items i ON i.id = p.snag_item_id
WHERE i.snag_list_id = $1
ORDER BY p.created_at ASC`
	var photos []models.SnagPhoto
	if err = tx.SelectContext(ctx, &photos, photosQuery, id); err != nil {
		return nil, fmt.Errorf("list snag photos: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snag list snapshot: %w", err)
	}

	index := make(map[string]int, len(items))
	for i := range items {
		index[items[i].ID] = i
	}
	for _, u := range updates {
		if i, ok := index[u.SnagItemID]; ok {
			items[i].Updates = append(items[i].Updates, u)
		}
	}
	for _, p := range photos {
		if i, ok := index[p.SnagItemID]; ok {
			items[i].Photos = append(items[i].Photos, p)
		}
	}
	list.Items = items
	return &list, nil
}

// Create inserts a new snag list together with its creation audit entry.
func (r *SnagListRepository) Create(ctx context.Context, list *models.SnagList, actor AuditActor) (err error) {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now
	}
	if list.UpdatedAt.IsZero() {
		list.UpdatedAt = list.CreatedAt
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create snag list: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query, args, err := psql.Insert("snag_lists").Columns(snagListColumns...).Values(
		list.ID, list.PropertyID, list.ReservationID, list.Title, list.Description, string(list.Status),
		string(list.Priority), list.TargetCompletionDate, list.Notes, list.CreatedBy, list.CreatedAt, list.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert snag list: %w", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert snag list: %w", err)
	}

	audit, err := newAuditLog(actor, models.AuditActionSnagListCreated, models.AuditResourceSnagList, list.ID, nil, list, list.CreatedAt)
	if err != nil {
		return err
	}
	if err = insertAuditLog(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create snag list: %w", err)
	}
	return nil
}

// Update applies a patch atomically. A status change is recorded as SNAG_LIST_STATUS_CHANGED, any other
// patch as SNAG_LIST_UPDATED. Moving the list to COMPLETED closes every outstanding item in the same
// transaction, appending one AUTO_COMPLETED entry to each item's update log.
func (r *SnagListRepository) Update(ctx context.Context, id string, patch SnagListPatch, actor AuditActor, now time.Time) (_ *SnagListUpdateResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update snag list: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result := &SnagListUpdateResult{}
	lockQuery := fmt.Sprintf("SELECT %s FROM snag_lists WHERE id = $1 FOR UPDATE", strings.Join(snagListColumns, ", "))
	if err = tx.GetContext(ctx, &result.Previous, lockQuery, id); err != nil {
		return nil, fmt.Errorf("lock snag list: %w", err)
	}

	changes := map[string]interface{}{"updated_at": now}
	if patch.Title != nil {
		changes["title"] = *patch.Title
	}
	if patch.Description != nil {
		changes["description"] = *patch.Description
	}
	if patch.Status != nil {
		changes["status"] = string(*patch.Status)
	}
	if patch.Priority != nil {
		changes["priority"] = string(*patch.Priority)
	}
	if patch.TargetCompletionDate != nil {
		changes["target_completion_date"] = *patch.TargetCompletionDate
	}
	if patch.Notes != nil {
		changes["notes"] = *patch.Notes
	}
	query, args, err := psql.Update("snag_lists").SetMap(changes).Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(snagListColumns, ", ")).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update snag list: %w", err)
	}
	if err = tx.QueryRowxContext(ctx, query, args...).StructScan(&result.Current); err != nil {
		return nil, fmt.Errorf("update snag list: %w", err)
	}

	action := models.AuditActionSnagListUpdated
	if result.StatusChanged() {
		action = models.AuditActionSnagListStatusChanged
	}
	audit, err := newAuditLog(actor, action, models.AuditResourceSnagList, id, result.Previous, result.Current, now)
	if err != nil {
		return nil, err
	}
	if err = insertAuditLog(ctx, tx, audit); err != nil {
		return nil, err
	}

	if result.StatusChanged() && result.Current.Status == models.SnagListStatusCompleted {
		if result.AutoCompleted, err = autoCompleteItems(ctx, tx, id, actor.UserID, now); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update snag list: %w", err)
	}
	return result, nil
}

func autoCompleteItems(ctx context.Context, tx *sqlx.Tx, listID, actorID string, now time.Time) ([]string, error) {
	var ids []string
	const selectQuery = `SELECT id FROM snag_items WHERE snag_list_id = $1 AND status <> 'COMPLETED' ORDER BY created_at ASC, id ASC FOR UPDATE`
	if err := tx.SelectContext(ctx, &ids, selectQuery, listID); err != nil {
		return nil, fmt.Errorf("lock outstanding snag items: %w", err)
	}

	const completeQuery = `UPDATE snag_items SET status = 'COMPLETED', completed_date = $1, completion_notes = $2, updated_at = $1 WHERE id = $3`
	for _, itemID := range ids {
		if _, err := tx.ExecContext(ctx, completeQuery, now, models.AutoCompletionNote, itemID); err != nil {
			return nil, fmt.Errorf("auto-complete snag item %s: %w", itemID, err)
		}
		entry := models.SnagItemUpdate{
			SnagItemID: itemID,
			UpdateType: models.SnagUpdateAutoCompleted,
			Content:    models.AutoCompletionNote,
			AuthorID:   actorID,
			CreatedAt:  now,
		}
		if err := insertItemUpdate(ctx, tx, &entry); err != nil {
			return nil, fmt.Errorf("log auto-completion of %s: %w", itemID, err)
		}
	}
	return ids, nil
}

// SoftDelete marks a snag list as CANCELLED and records the deletion, in one transaction.
func (r *SnagListRepository) SoftDelete(ctx context.Context, id string, actor AuditActor, now time.Time) (_ *models.SnagList, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete snag list: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var previous models.SnagList
	lockQuery := fmt.Sprintf("SELECT %s FROM snag_lists WHERE id = $1 FOR UPDATE", strings.Join(snagListColumns, ", "))
	if err = tx.GetContext(ctx, &previous, lockQuery, id); err != nil {
		return nil, fmt.Errorf("lock snag list: %w", err)
	}

	const cancelQuery = `UPDATE snag_lists SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err = tx.ExecContext(ctx, cancelQuery, string(models.SnagListStatusCancelled), now, id); err != nil {
		return nil, fmt.Errorf("cancel snag list: %w", err)
	}

	current := previous
	current.Status = models.SnagListStatusCancelled
	current.UpdatedAt = now
	audit, err := newAuditLog(actor, models.AuditActionSnagListDeleted, models.AuditResourceSnagList, id, previous, current, now)
	if err != nil {
		return nil, err
	}
	if err = insertAuditLog(ctx, tx, audit); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete snag list: %w", err)
	}
	return &current, nil
}

// ListOverdue summarises active snag lists that have outstanding items past their target date.
func (r *SnagListRepository) ListOverdue(ctx context.Context, now time.Time) ([]models.OverdueSummary, error) {
	const query = `
SELECT sl.id AS snag_list_id, sl.title, sl.property_id, COUNT(i.id) AS overdue_items
FROM snag_lists sl
JOIN snag_items i ON i.snag_list_id = sl.id
WHERE sl.status NOT IN ('COMPLETED', 'CANCELLED')
	AND i.status <> 'COMPLETED'
	AND i.target_date < $1
GROUP BY sl.id, sl.title, sl.property_id
ORDER BY overdue_items DESC, sl.id ASC`
	var rows []models.OverdueSummary
	if err := r.db.SelectContext(ctx, &rows, query, now); err != nil {
		return nil, fmt.Errorf("list overdue snag lists: %w", err)
	}
	return rows, nil
}
