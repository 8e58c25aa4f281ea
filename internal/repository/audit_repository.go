package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prop-ie/snag-api/internal/models"
)

// AuditActor identifies who triggered a write and from where.
type AuditActor struct {
	UserID    string
	IPAddress string
	UserAgent string
}

type namedExecer interface {
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

const insertAuditLogQuery = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at) VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`

func insertAuditLog(ctx context.Context, exec namedExecer, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if _, err := exec.NamedExecContext(ctx, insertAuditLogQuery, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// newAuditLog builds an audit entry, serialising before/after snapshots when present.
func newAuditLog(actor AuditActor, action, resource, resourceID string, before, after interface{}, at time.Time) (*models.AuditLog, error) {
	log := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		CreatedAt:  at,
	}
	if actor.UserID != "" {
		userID := actor.UserID
		log.UserID = &userID
	}
	if before != nil {
		raw, err := json.Marshal(before)
		if err != nil {
			return nil, fmt.Errorf("marshal audit old values: %w", err)
		}
		log.OldValues = raw
	}
	if after != nil {
		raw, err := json.Marshal(after)
		if err != nil {
			return nil, fmt.Errorf("marshal audit new values: %w", err)
		}
		log.NewValues = raw
	}
	return log, nil
}

// AuditRepository persists audit entries written outside of domain transactions.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog stores an audit log entry.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return insertAuditLog(ctx, r.db, log)
}
