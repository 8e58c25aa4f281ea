package service

import (
	"context"
	"fmt"

	"github.com/adhocore/gronx"
	"github.com/adhocore/gronx/pkg/tasker"
	"go.uber.org/zap"

	"github.com/prop-ie/snag-api/internal/models"
)

const exportCleanupCron = "30 * * * *"

type snagMaintenance interface {
	InvalidateAll(ctx context.Context) error
	Overdue(ctx context.Context) ([]models.OverdueSummary, error)
}

type reportCleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

type eventPublisherNow interface {
	PublishNow(ctx context.Context, event models.SnagEvent) error
}

// SchedulerConfig holds the cron expressions of the maintenance tasks.
type SchedulerConfig struct {
	Timezone          string
	CacheResetCron    string
	OverdueDigestCron string
}

// Scheduler runs periodic maintenance: the midnight analytics cache reset, the overdue digest
// and the removal of expired reports.
type Scheduler struct {
	lists   snagMaintenance
	reports reportCleaner
	events  eventPublisherNow
	logger  *zap.Logger
	cfg     SchedulerConfig
}

// NewScheduler validates the cron expressions and builds a scheduler. reports and events may be nil.
func NewScheduler(lists snagMaintenance, reports reportCleaner, events eventPublisherNow, logger *zap.Logger, cfg SchedulerConfig) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.CacheResetCron == "" {
		cfg.CacheResetCron = "0 0 * * *"
	}
	if cfg.OverdueDigestCron == "" {
		cfg.OverdueDigestCron = "0 7 * * *"
	}
	g := gronx.New()
	for _, expr := range []string{cfg.CacheResetCron, cfg.OverdueDigestCron} {
		if !g.IsValid(expr) {
			return nil, fmt.Errorf("invalid cron expression %q", expr)
		}
	}
	return &Scheduler{lists: lists, reports: reports, events: events, logger: logger, cfg: cfg}, nil
}

// Run registers the tasks and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	taskr := tasker.New(tasker.Option{Tz: s.cfg.Timezone}).WithContext(ctx)

	taskr.Task(s.cfg.CacheResetCron, s.task("reset_analytics_cache", s.ResetCache), false)
	taskr.Task(s.cfg.OverdueDigestCron, s.task("overdue_digest", s.OverdueDigest), false)
	if s.reports != nil {
		taskr.Task(exportCleanupCron, s.task("cleanup_exports", s.CleanupExports), false)
	}

	s.logger.Info("scheduler started", zap.String("timezone", s.cfg.Timezone))
	taskr.Run()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) task(name string, fn func(context.Context) error) tasker.TaskFunc {
	return func(ctx context.Context) (int, error) {
		if err := fn(ctx); err != nil {
			s.logger.Error("scheduled task failed", zap.String("job", name), zap.Error(err))
			return 1, err
		}
		return 0, nil
	}
}

// ResetCache drops every cached analytics payload so date-bucketed figures are recomputed.
func (s *Scheduler) ResetCache(ctx context.Context) error {
	if err := s.lists.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("reset analytics cache: %w", err)
	}
	s.logger.Info("analytics cache reset")
	return nil
}

// OverdueDigest publishes one digest event per snag list with overdue items.
func (s *Scheduler) OverdueDigest(ctx context.Context) error {
	overdue, err := s.lists.Overdue(ctx)
	if err != nil {
		return err
	}
	if s.events == nil {
		return nil
	}
	published := 0
	for _, row := range overdue {
		event := models.SnagEvent{
			Type:       models.SnagEventOverdueDigest,
			SnagListID: row.SnagListID,
			Payload: map[string]interface{}{
				"title":        row.Title,
				"propertyId":   row.PropertyID,
				"overdueItems": row.OverdueItems,
			},
		}
		if err := s.events.PublishNow(ctx, event); err != nil {
			s.logger.Warn("overdue digest not published", zap.String("snag_list_id", row.SnagListID), zap.Error(err))
			continue
		}
		published++
	}
	s.logger.Info("overdue digest sent", zap.Int("lists", len(overdue)), zap.Int("published", published))
	return nil
}

// CleanupExports removes stored reports past their retention window.
func (s *Scheduler) CleanupExports(ctx context.Context) error {
	removed, err := s.reports.Cleanup(ctx)
	if removed > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", removed))
	}
	return err
}
