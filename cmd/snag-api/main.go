package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prop-ie/snag-api/internal/app"
	"github.com/prop-ie/snag-api/internal/server"
	"github.com/prop-ie/snag-api/pkg/config"
	"github.com/prop-ie/snag-api/pkg/database"
	"github.com/prop-ie/snag-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title PROP.ie Snag List API
// @version 1.0.0
// @description Snag list tracking with completion analytics, progress estimation and report exports.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Env}); err != nil {
			logr.Warn("sentry disabled", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to initialise application", zap.Error(err))
	}
	defer a.Close()

	if err := database.MigrateUp(a.DB.DB); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	// Event workers outlive the signal context so queued events can drain during shutdown.
	a.Events.Start(context.Background())

	srv := server.NewHTTPServer(cfg, a.Router())
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Scheduler.Enabled {
		scheduler, err := a.Scheduler()
		if err != nil {
			logr.Fatal("invalid scheduler configuration", zap.Error(err))
		}
		g.Go(func() error {
			scheduler.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logr.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logr.Error("server stopped with error", zap.Error(err))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Events.Stop(drainCtx)
}
