package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/repository"
	"github.com/prop-ie/snag-api/pkg/jobs"
)

type eventPublisher interface {
	Publish(ctx context.Context, event models.SnagEvent) (int64, error)
}

// EventServiceConfig sizes the dispatch worker pool.
type EventServiceConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// EventService hands snag events to the pub/sub channel off the request path.
// Publishing is best effort: a saturated buffer or exhausted retries drop the event with a warning.
type EventService struct {
	publisher eventPublisher
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewEventService builds the service and its worker queue. Call Start before dispatching.
func NewEventService(publisher eventPublisher, metrics *MetricsService, logger *zap.Logger, cfg EventServiceConfig) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	s := &EventService{publisher: publisher, metrics: metrics, logger: logger, now: func() time.Time { return time.Now().UTC() }}
	s.queue = jobs.NewQueue("snag-events", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *EventService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains pending events until ctx expires.
func (s *EventService) Stop(ctx context.Context) {
	s.queue.Stop(ctx)
}

// Dispatch enqueues an event without blocking the caller.
func (s *EventService) Dispatch(event models.SnagEvent) {
	if s == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	if err := s.queue.TryEnqueue(jobs.Job{ID: event.ID, Type: string(event.Type), Payload: event}); err != nil {
		s.metrics.RecordEventPublished(string(event.Type), "dropped")
		s.logger.Warn("snag event dropped", zap.String("event_id", event.ID), zap.String("type", string(event.Type)), zap.Error(err))
	}
}

// PublishNow sends an event synchronously. Used by the scheduler and the CLI, which have no request to unblock.
func (s *EventService) PublishNow(ctx context.Context, event models.SnagEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	return s.publish(ctx, event)
}

func (s *EventService) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.SnagEvent)
	if !ok {
		s.logger.Error("unexpected event payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	err := s.publish(ctx, event)
	if err != nil {
		s.metrics.RecordEventPublished(string(event.Type), "retry")
	}
	return err
}

func (s *EventService) publish(ctx context.Context, event models.SnagEvent) error {
	receivers, err := s.publisher.Publish(ctx, event)
	if errors.Is(err, repository.ErrPublishingDisabled) {
		s.metrics.RecordEventPublished(string(event.Type), "disabled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	s.metrics.RecordEventPublished(string(event.Type), "ok")
	s.logger.Debug("snag event published", zap.String("event_id", event.ID), zap.String("type", string(event.Type)), zap.Int64("receivers", receivers))
	return nil
}
