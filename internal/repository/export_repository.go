package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prop-ie/snag-api/internal/models"
)

// ExportRepository records rendered snag reports.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs the repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create stores export metadata and the matching SNAG_REPORT_EXPORTED audit entry.
func (r *ExportRepository) Create(ctx context.Context, export *models.SnagExport, actor AuditActor) (err error) {
	if export.ID == "" {
		export.ID = uuid.NewString()
	}
	if export.CreatedAt.IsZero() {
		export.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create snag export: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO snag_exports (id, snag_list_id, format, storage_key, size_bytes, created_by, created_at) VALUES (:id, :snag_list_id, :format, :storage_key, :size_bytes, :created_by, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, export); err != nil {
		return fmt.Errorf("insert snag export: %w", err)
	}

	audit, err := newAuditLog(actor, models.AuditActionSnagReportExported, models.AuditResourceSnagList, export.SnagListID, nil, export, export.CreatedAt)
	if err != nil {
		return err
	}
	if err = insertAuditLog(ctx, tx, audit); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create snag export: %w", err)
	}
	return nil
}

// GetByID fetches export metadata.
func (r *ExportRepository) GetByID(ctx context.Context, id string) (*models.SnagExport, error) {
	const query = `SELECT id, snag_list_id, format, storage_key, size_bytes, created_by, created_at FROM snag_exports WHERE id = $1`
	var export models.SnagExport
	if err := r.db.GetContext(ctx, &export, query, id); err != nil {
		return nil, fmt.Errorf("get snag export: %w", err)
	}
	return &export, nil
}

// ListOlderThan returns exports created before cutoff, oldest first.
func (r *ExportRepository) ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.SnagExport, error) {
	const query = `SELECT id, snag_list_id, format, storage_key, size_bytes, created_by, created_at FROM snag_exports WHERE created_at < $1 ORDER BY created_at ASC LIMIT $2`
	var exports []models.SnagExport
	if err := r.db.SelectContext(ctx, &exports, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list expired snag exports: %w", err)
	}
	return exports, nil
}

// Delete removes export metadata.
func (r *ExportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snag_exports WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete snag export: %w", err)
	}
	return nil
}
