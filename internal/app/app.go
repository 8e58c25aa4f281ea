// Package app assembles the snag service from configuration. Both the HTTP server and snagctl use it.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/prop-ie/snag-api/internal/dto"
	"github.com/prop-ie/snag-api/internal/handler"
	"github.com/prop-ie/snag-api/internal/repository"
	"github.com/prop-ie/snag-api/internal/server"
	"github.com/prop-ie/snag-api/internal/service"
	"github.com/prop-ie/snag-api/pkg/cache"
	"github.com/prop-ie/snag-api/pkg/clock"
	"github.com/prop-ie/snag-api/pkg/config"
	"github.com/prop-ie/snag-api/pkg/database"
	"github.com/prop-ie/snag-api/pkg/storage"
)

// App holds the wired collaborators of one process.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *service.MetricsService

	Audit     *repository.AuditRepository
	Auth      *service.AuthService
	Cache     *service.CacheService
	Events    *service.EventService
	SnagLists *service.SnagListService
	SnagItems *service.SnagItemService
	Reports   *service.ReportService

	cacheRepo cacheBackend
}

type cacheBackend interface {
	service.CacheRepository
	Close() error
}

// New connects to Postgres (and Redis when enabled) and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := database.NewPostgres(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, DB: db, Metrics: service.NewMetricsService()}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-process cache", zap.Error(err))
		} else {
			a.Redis = client
		}
	}
	if a.Redis != nil {
		a.cacheRepo = repository.NewCacheRepository(a.Redis, logger)
	} else {
		a.cacheRepo = repository.NewLocalCacheRepository(cfg.Analytics.LocalCacheSize, cfg.Analytics.CacheTTL)
	}

	backend, err := newStorage(ctx, cfg.Exports)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	clk := clock.Real{}
	validate := dto.NewValidator()

	listRepo := repository.NewSnagListRepository(db)
	itemRepo := repository.NewSnagItemRepository(db)
	exportRepo := repository.NewExportRepository(db)
	a.Audit = repository.NewAuditRepository(db)

	a.Auth = service.NewAuthService(logger, service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	a.Cache = service.NewCacheService(a.cacheRepo, a.Metrics, cfg.Analytics.CacheTTL, logger, cfg.Analytics.CacheEnabled)
	a.Events = service.NewEventService(repository.NewEventPublisher(a.Redis, cfg.Events.Channel), a.Metrics, logger, service.EventServiceConfig{
		Workers:    cfg.Events.Workers,
		MaxRetries: cfg.Events.MaxRetries,
		RetryDelay: cfg.Events.RetryDelay,
	})
	a.SnagLists = service.NewSnagListService(listRepo, itemRepo, a.Cache, a.Events, a.Metrics, validate, clk, logger, service.SnagListServiceConfig{
		CacheTTL:      cfg.Analytics.CacheTTL,
		TimelineLimit: cfg.Analytics.TimelineLimit,
	})
	a.SnagItems = service.NewSnagItemService(listRepo, itemRepo, a.Cache, a.Events, validate, clk, logger)

	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	a.Reports = service.NewReportService(listRepo, exportRepo, backend, signer, a.Metrics, validate, clk, logger, service.ReportServiceConfig{
		APIPrefix: cfg.APIPrefix,
	})

	return a, nil
}

// Scheduler builds the maintenance scheduler from the configured cron expressions.
func (a *App) Scheduler() (*service.Scheduler, error) {
	return service.NewScheduler(a.SnagLists, a.Reports, a.Events, a.Logger, service.SchedulerConfig{
		Timezone:          a.Config.Scheduler.Timezone,
		CacheResetCron:    a.Config.Scheduler.CacheResetCron,
		OverdueDigestCron: a.Config.Scheduler.OverdueDigestCron,
	})
}

// Router mounts the HTTP handlers.
func (a *App) Router() *gin.Engine {
	checks := map[string]handler.ReadinessCheck{
		"database": a.DB.PingContext,
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	return server.NewRouter(server.Dependencies{
		Config:  a.Config,
		Logger:  a.Logger,
		Metrics: a.Metrics,
		Tokens:  a.Auth,
		Audit:   a.Audit,
		Handlers: server.Handlers{
			SnagLists: handler.NewSnagListHandler(a.SnagLists),
			SnagItems: handler.NewSnagItemHandler(a.SnagItems),
			Reports:   handler.NewReportHandler(a.Reports, a.Logger),
			Metrics:   handler.NewMetricsHandler(a.Metrics, checks),
		},
	})
}

// Close releases the cache and database connections.
func (a *App) Close() {
	if a.cacheRepo != nil {
		if err := a.cacheRepo.Close(); err != nil {
			a.Logger.Warn("close cache", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("close postgres", zap.Error(err))
		}
	}
}

func newStorage(ctx context.Context, cfg config.ExportsConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case config.ExportsBackendS3:
		backend, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 export storage: %w", err)
		}
		return backend, nil
	case config.ExportsBackendFilesystem, "":
		backend, err := storage.NewLocalStorage(cfg.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("init export storage: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown exports backend %q", cfg.Backend)
	}
}
