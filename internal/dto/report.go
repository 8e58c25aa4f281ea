package dto

import (
	"time"

	"github.com/prop-ie/snag-api/internal/models"
)

// SnagReportRequest captures POST /snag-lists/:id/exports payload.
type SnagReportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=PDF CSV"`
}

// SnagReportResponse is returned once a report has been rendered and stored.
type SnagReportResponse struct {
	ID          string              `json:"id"`
	Format      models.ExportFormat `json:"format"`
	SizeBytes   int64               `json:"sizeBytes"`
	DownloadURL string              `json:"downloadUrl"`
	ExpiresAt   time.Time           `json:"expiresAt"`
}
