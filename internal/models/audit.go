package models

import "time"

// Audit actions recorded for snag list activity.
const (
	AuditActionSnagListCreated       = "SNAG_LIST_CREATED"
	AuditActionSnagListUpdated       = "SNAG_LIST_UPDATED"
	AuditActionSnagListStatusChanged = "SNAG_LIST_STATUS_CHANGED"
	AuditActionSnagListDeleted       = "SNAG_LIST_DELETED"
	AuditActionSnagItemCreated       = "SNAG_ITEM_CREATED"
	AuditActionSnagItemUpdated       = "SNAG_ITEM_UPDATED"
	AuditActionSnagReportExported    = "SNAG_REPORT_EXPORTED"
	AuditActionSnagReportDownloaded  = "SNAG_REPORT_DOWNLOADED"
)

// Audit resources.
const (
	AuditResourceSnagList = "snag_list"
	AuditResourceSnagItem = "snag_item"
	AuditResourceExport   = "snag_export"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
