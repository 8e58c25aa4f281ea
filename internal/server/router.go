package server

import (
	"fmt"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/prop-ie/snag-api/api/swagger"
	"github.com/prop-ie/snag-api/internal/handler"
	"github.com/prop-ie/snag-api/internal/middleware"
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/service"
	"github.com/prop-ie/snag-api/pkg/config"
	"github.com/prop-ie/snag-api/pkg/logger"
	corsmiddleware "github.com/prop-ie/snag-api/pkg/middleware/cors"
	reqidmiddleware "github.com/prop-ie/snag-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	SnagLists *handler.SnagListHandler
	SnagItems *handler.SnagItemHandler
	Reports   *handler.ReportHandler
	Metrics   *handler.MetricsHandler
}

// Dependencies are the collaborators the router needs besides the handlers.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *service.MetricsService
	Tokens   middleware.TokenValidator
	Audit    middleware.AuditRecorder
	Handlers Handlers
}

var (
	writers     = []models.UserRole{models.RoleInspector, models.RoleDeveloper}
	itemEditors = []models.UserRole{models.RoleInspector, models.RoleDeveloper, models.RoleContractor}
)

// NewRouter builds the gin engine with the global middleware chain and every route.
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	h := deps.Handlers
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/exports/download",
		middleware.Audit(deps.Audit, logr, models.AuditActionSnagReportDownloaded, models.AuditResourceExport),
		h.Reports.Download,
	)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	lists := secured.Group("/snag-lists")
	lists.GET("", h.SnagLists.List)
	lists.POST("", middleware.RequireRoles(writers...), h.SnagLists.Create)
	lists.GET("/:id", h.SnagLists.Get)
	lists.GET("/:id/analytics", h.SnagLists.Analytics)
	lists.GET("/:id/timeline", h.SnagLists.Timeline)
	lists.PATCH("/:id", middleware.RequireRoles(writers...), h.SnagLists.Update)
	lists.DELETE("/:id", middleware.RequireRoles(models.RoleInspector), h.SnagLists.Delete)

	lists.POST("/:id/items", middleware.RequireRoles(writers...), h.SnagItems.Create)
	lists.PATCH("/:id/items/:itemId", middleware.RequireRoles(itemEditors...), h.SnagItems.Update)
	lists.POST("/:id/items/:itemId/updates", h.SnagItems.AddComment)

	lists.POST("/:id/exports", middleware.RequireRoles(writers...), h.Reports.Generate)

	secured.GET("/admin/metrics", middleware.RequireRoles(models.RoleAdmin), h.Metrics.Snapshot)

	return r
}

// NewHTTPServer wraps the router in an http.Server bound to the configured port.
func NewHTTPServer(cfg *config.Config, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}
