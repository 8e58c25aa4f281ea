package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prop-ie/snag-api/internal/analytics"
	"github.com/prop-ie/snag-api/internal/dto"
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/repository"
	"github.com/prop-ie/snag-api/pkg/clock"
	appErrors "github.com/prop-ie/snag-api/pkg/errors"
	"github.com/prop-ie/snag-api/pkg/export"
	"github.com/prop-ie/snag-api/pkg/storage"
)

const (
	cleanupBatchSize = 100
	// orphanSweepGrace keeps files whose export row may still be in flight out of the orphan sweep.
	orphanSweepGrace = time.Hour
)

type snagSnapshotLoader interface {
	GetWithItems(ctx context.Context, id string, updatesPerItem int) (*models.SnagList, error)
}

type exportStore interface {
	Create(ctx context.Context, export *models.SnagExport, actor repository.AuditActor) error
	GetByID(ctx context.Context, id string) (*models.SnagExport, error)
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.SnagExport, error)
	Delete(ctx context.Context, id string) error
}

type reportRenderer interface {
	Render(report export.Report) ([]byte, error)
}

// ReportServiceConfig governs download links and retention.
type ReportServiceConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ReportDownload aggregates resolved download data. The caller closes Body.
type ReportDownload struct {
	ID          string
	Body        io.ReadCloser
	Filename    string
	ContentType string
	SizeBytes   int64
	ExpiresAt   time.Time
}

// ReportService renders snag list reports, stores them and hands out signed download links.
type ReportService struct {
	lists     snagSnapshotLoader
	exports   exportStore
	storage   storage.Backend
	signer    *storage.SignedURLSigner
	renderers map[models.ExportFormat]reportRenderer
	metrics   *MetricsService
	validator *validator.Validate
	clock     clock.Clock
	logger    *zap.Logger
	cfg       ReportServiceConfig
}

// NewReportService constructs the report service with the CSV and PDF renderers.
func NewReportService(lists snagSnapshotLoader, exports exportStore, backend storage.Backend, signer *storage.SignedURLSigner, metrics *MetricsService, validate *validator.Validate, clk clock.Clock, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		lists:   lists,
		exports: exports,
		storage: backend,
		signer:  signer,
		renderers: map[models.ExportFormat]reportRenderer{
			models.ExportFormatCSV: export.NewCSVExporter(),
			models.ExportFormatPDF: export.NewPDFExporter(),
		},
		metrics:   metrics,
		validator: validate,
		clock:     clk,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate renders the report of a snag list, stores it and returns a signed download link.
func (s *ReportService) Generate(ctx context.Context, listID string, req dto.SnagReportRequest, actor Actor) (*dto.SnagReportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid report request")
	}
	renderer, ok := s.renderers[req.Format]
	if !ok {
		return nil, appErrors.WithDetails("invalid report request", appErrors.FieldError{Field: "format", Rule: "oneof", Message: "unsupported format"})
	}

	list, err := s.lists.GetWithItems(ctx, listID, 0)
	if err != nil {
		return nil, translateNotFound(err, "snag list not found", "failed to load snag list")
	}

	now := s.clock.Now()
	start := time.Now()
	insights := analytics.Insights(list.ID, list.Items, now)
	s.metrics.ObserveEngine("report", time.Since(start))

	payload, err := renderer.Render(buildSnagReport(*list, insights, now))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}

	record := &models.SnagExport{
		ID:         uuid.NewString(),
		SnagListID: list.ID,
		Format:     req.Format,
		SizeBytes:  int64(len(payload)),
		CreatedBy:  actor.ID,
		CreatedAt:  now,
	}
	record.StorageKey = fmt.Sprintf("%s/%s_%s.%s", list.ID, sanitizeFilename(list.Title), now.Format("20060102_150405"), req.Format.Extension())

	if err := s.storage.Put(ctx, record.StorageKey, payload, req.Format.ContentType()); err != nil {
		return nil, appErrors.Internal(err, "failed to store report")
	}
	if err := s.exports.Create(ctx, record, actor.audit()); err != nil {
		if delErr := s.storage.Delete(ctx, record.StorageKey); delErr != nil {
			s.logger.Warn("orphaned report object", zap.String("key", record.StorageKey), zap.Error(delErr))
		}
		return nil, appErrors.Internal(err, "failed to record report")
	}

	token, expiresAt, err := s.signer.Generate(record.ID, record.StorageKey)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download link")
	}

	s.logger.Info("snag report exported",
		zap.String("snag_list_id", list.ID),
		zap.String("export_id", record.ID),
		zap.String("format", string(req.Format)),
		zap.Int64("size_bytes", record.SizeBytes),
	)
	return &dto.SnagReportResponse{
		ID:          record.ID,
		Format:      record.Format,
		SizeBytes:   record.SizeBytes,
		DownloadURL: s.downloadURL(token),
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *ReportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/exports/download?token=%s", prefix, url.QueryEscape(token))
}

// ResolveDownload validates token and opens the stored report.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}

	record, err := s.exports.GetByID(ctx, claims.ExportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Internal(err, "failed to load report")
	}
	if record.StorageKey != claims.Key {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}

	body, err := s.storage.Open(ctx, record.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report no longer available")
		}
		return nil, appErrors.Internal(err, "failed to open report")
	}
	name := record.StorageKey
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return &ReportDownload{
		ID:          record.ID,
		Body:        body,
		Filename:    name,
		ContentType: record.Format.ContentType(),
		SizeBytes:   record.SizeBytes,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// Cleanup deletes stored reports older than the retention window and returns how many were removed.
// Backends that can enumerate their objects are then swept for files no export record points at.
func (s *ReportService) Cleanup(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.cfg.ResultTTL)
	removed, err := s.cleanupRecords(ctx, cutoff)
	if err != nil {
		return removed, err
	}
	sweeper, ok := s.storage.(storage.Sweeper)
	if !ok {
		return removed, nil
	}
	orphans, err := sweeper.CleanupOlderThan(ctx, cutoff.Add(-orphanSweepGrace))
	if len(orphans) > 0 {
		s.logger.Info("orphaned report files removed", zap.Int("count", len(orphans)), zap.Strings("keys", orphans))
	}
	if err != nil {
		return removed, fmt.Errorf("sweep orphaned reports: %w", err)
	}
	return removed, nil
}

func (s *ReportService) cleanupRecords(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	for {
		expired, err := s.exports.ListOlderThan(ctx, cutoff, cleanupBatchSize)
		if err != nil {
			return removed, fmt.Errorf("list expired reports: %w", err)
		}
		for _, record := range expired {
			if err := s.storage.Delete(ctx, record.StorageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
				return removed, fmt.Errorf("delete report object %s: %w", record.StorageKey, err)
			}
			if err := s.exports.Delete(ctx, record.ID); err != nil {
				return removed, fmt.Errorf("delete report record %s: %w", record.ID, err)
			}
			removed++
		}
		if len(expired) < cleanupBatchSize {
			return removed, nil
		}
	}
}
