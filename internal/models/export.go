package models

import "time"

// ExportFormat enumerates rendered report formats.
type ExportFormat string

const (
	ExportFormatPDF ExportFormat = "PDF"
	ExportFormatCSV ExportFormat = "CSV"
)

// Extension returns the file extension for the format.
func (f ExportFormat) Extension() string {
	if f == ExportFormatCSV {
		return "csv"
	}
	return "pdf"
}

// ContentType returns the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	if f == ExportFormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}

// SnagExport records a rendered report stored in the export backend.
type SnagExport struct {
	ID         string       `db:"id" json:"id"`
	SnagListID string       `db:"snag_list_id" json:"snagListId"`
	Format     ExportFormat `db:"format" json:"format"`
	StorageKey string       `db:"storage_key" json:"-"`
	SizeBytes  int64        `db:"size_bytes" json:"sizeBytes"`
	CreatedBy  string       `db:"created_by" json:"createdBy"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
}
