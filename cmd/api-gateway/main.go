package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-records-api/api/swagger"
	"github.com/noah-isme/sma-records-api/internal/handler"
	"github.com/noah-isme/sma-records-api/internal/middleware"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	"github.com/noah-isme/sma-records-api/internal/service"
	"github.com/noah-isme/sma-records-api/pkg/cache"
	"github.com/noah-isme/sma-records-api/pkg/config"
	"github.com/noah-isme/sma-records-api/pkg/database"
	"github.com/noah-isme/sma-records-api/pkg/jobs"
	"github.com/noah-isme/sma-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-records-api/pkg/middleware/requestid"
)

// @title SMA Records API
// @version 1.0.0
// @description Attendance, behaviour and report records for a secondary school.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type handlers struct {
	attendance *handler.AttendanceHandler
	behavior   *handler.BehaviorHandler
	reports    *handler.ReportHandler
	dashboard  *handler.DashboardHandler
	ops        *handler.MetricsHandler
}

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.Redis.KeyPrefix, logr.Named("cache"))
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.ExportCacheTTL, logr, redisClient != nil)
	defer cacheRepo.Close() //nolint:errcheck

	directory := repository.NewDirectoryRepository(db)
	reportRepo := repository.NewReportRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	downloads := service.NewDownloadTracker(reportRepo, jobs.QueueConfig{
		Workers:    cfg.Reports.DownloadWorkers,
		BufferSize: 256,
		MaxRetries: cfg.Reports.DownloadRetries,
		RetryDelay: time.Second,
		Logger:     logr.Named("downloads"),
	})
	downloads.Start(ctx)
	defer downloads.Stop()

	attendanceSvc := service.NewAttendanceService(repository.NewAttendanceRepository(db), directory, db, nil, metrics, logr.Named("attendance"))
	behaviorSvc := service.NewBehaviorService(repository.NewBehaviorRepository(db), directory, db, nil, metrics, logr.Named("behavior"))
	reportSvc := service.NewReportService(service.ReportServiceParams{
		Reports:    reportRepo,
		Sequences:  repository.NewSequenceRepository(db),
		Classes:    directory,
		Aggregator: service.NewReportAggregator(repository.NewReportSummaryRepository(db), db),
		Tx:         db,
		Cache:      cacheSvc,
		Downloads:  downloads,
		Metrics:    metrics,
		Logger:     logr.Named("reports"),
		Config: service.ReportServiceConfig{
			ExportCacheTTL: cfg.Reports.ExportCacheTTL,
			DefaultFormat:  cfg.Reports.DefaultFormat,
		},
	})

	h := handlers{
		attendance: handler.NewAttendanceHandler(attendanceSvc),
		behavior:   handler.NewBehaviorHandler(behaviorSvc),
		reports:    handler.NewReportHandler(reportSvc),
		dashboard:  handler.NewDashboardHandler(nil),
		ops: handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
			"database": handler.PingFunc(db.PingContext),
			"cache":    cacheSvc,
		}),
	}
	if cfg.Dashboard.Enabled {
		h.dashboard = handler.NewDashboardHandler(service.NewDashboardService(dashboardRepo, cacheSvc, logr.Named("dashboard"), service.DashboardServiceConfig{
			CacheTTL: cfg.Dashboard.CacheTTL,
		}))
	}

	if cfg.Reconciliation.Enabled {
		reconciler := service.NewReconciliationService(dashboardRepo, metrics, logr.Named("reconciliation"))
		scheduler, err := reconciler.Schedule(cfg.Reconciliation.Schedule, 5*time.Minute)
		if err != nil {
			logr.Fatal("invalid reconciliation schedule", zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := newRouter(cfg, logr, metrics, service.NewTokenService(cfg.JWT.Secret), h)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, tokens *service.TokenService, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, middleware.ActorFields))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.ops.Health)
	r.GET("/ready", h.ops.Ready)
	r.GET("/metrics", h.ops.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	audit := logr.Named("audit")
	api := r.Group(cfg.APIPrefix, middleware.JWT(tokens))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	attendance := api.Group("/attendance")
	attendance.POST("", staff, middleware.Audit(audit, "attendance.record"), h.attendance.Record)
	attendance.GET("", h.attendance.Day)
	attendance.GET("/students/:id/history", h.attendance.History)

	behavior := api.Group("/behavior")
	behavior.POST("/violations", staff, h.behavior.RecordViolation)
	behavior.GET("/violations", h.behavior.ListViolations)
	behavior.PATCH("/violations/:id/status", middleware.RequireRoles(models.RoleAdmin, models.RoleCounselor), middleware.Audit(audit, "behavior.resolve"), h.behavior.Resolve)
	behavior.POST("/positive", staff, h.behavior.RecordPositive)
	behavior.GET("/positive", h.behavior.ListPositive)

	reports := api.Group("/reports")
	reports.POST("", h.reports.Create)
	reports.GET("", h.reports.List)
	reports.GET("/summary", h.reports.Summary)
	reports.GET("/:id", h.reports.Get)
	reports.GET("/:id/export", h.reports.Export)
	reports.PUT("/:id/submit", middleware.Audit(audit, "report.submit"), h.reports.Submit)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	reports.PUT("/:id/approve", adminOnly, middleware.Audit(audit, "report.approve"), h.reports.Approve)
	reports.PUT("/:id/reject", adminOnly, middleware.Audit(audit, "report.reject"), h.reports.Reject)
	reports.PUT("/:id/publish", adminOnly, middleware.Audit(audit, "report.publish"), h.reports.Publish)

	api.GET("/dashboard/stats", adminOnly, h.dashboard.Stats)
	api.GET("/dashboard/attendance-chart", adminOnly, h.dashboard.AttendanceChart)

	return r
}
