package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tanzhaus/backoffice-api/api/swagger"
	"github.com/tanzhaus/backoffice-api/internal/handler"
	"github.com/tanzhaus/backoffice-api/internal/middleware"
	"github.com/tanzhaus/backoffice-api/internal/repository"
	"github.com/tanzhaus/backoffice-api/internal/service"
	"github.com/tanzhaus/backoffice-api/pkg/cache"
	"github.com/tanzhaus/backoffice-api/pkg/clock"
	"github.com/tanzhaus/backoffice-api/pkg/config"
	"github.com/tanzhaus/backoffice-api/pkg/database"
	"github.com/tanzhaus/backoffice-api/pkg/export"
	"github.com/tanzhaus/backoffice-api/pkg/jobs"
	"github.com/tanzhaus/backoffice-api/pkg/logger"
	corsmiddleware "github.com/tanzhaus/backoffice-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tanzhaus/backoffice-api/pkg/middleware/requestid"
)

// @title Tanzhaus Back-Office API
// @version 0.1.0
// @description Membership, billing schedule and payout administration
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	clk := clock.System{}
	validate := validator.New()
	metrics := service.NewMetricsService()

	memberRepo := repository.NewMemberRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	freezeRepo := repository.NewFreezeRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	classRepo := repository.NewClassRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	scheduleSvc := service.NewScheduleService(enrollmentRepo, freezeRepo, paymentRepo, cacheRepo, cfg.Billing.ScheduleCacheTTL, metrics, logr)
	statusSvc := service.NewStatusService(memberRepo, enrollmentRepo, freezeRepo, cacheRepo, metrics, logr)
	freezeSvc := service.NewFreezeService(freezeRepo, enrollmentRepo, memberRepo, auditRepo, statusSvc, scheduleSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, memberRepo, classRepo, auditRepo, scheduleSvc, validate, logr)
	memberSvc := service.NewMemberService(memberRepo, enrollmentRepo, freezeSvc, auditRepo, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, enrollmentRepo, classRepo, scheduleSvc, cacheRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, validate)
	payoutSvc := service.NewPayoutService(classRepo, paymentRepo, export.NewStatementRenderer(), logr)
	dashboardSvc := service.NewDashboardService(memberRepo, enrollmentRepo, freezeRepo, paymentRepo, paymentRepo, cacheRepo, cfg.Dashboard.CacheTTL, metrics, logr)

	memberHandler := handler.NewMemberHandler(memberSvc, statusSvc, freezeSvc, clk)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, scheduleSvc, clk)
	freezeHandler := handler.NewFreezeHandler(freezeSvc, clk)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, clk)
	classHandler := handler.NewClassHandler(classSvc)
	payoutHandler := handler.NewPayoutHandler(payoutSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, clk)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/members", memberHandler.List)
		api.POST("/members", memberHandler.Create)
		api.POST("/members/status-sync", memberHandler.StatusSync)
		api.GET("/members/:id", memberHandler.Get)
		api.PUT("/members/:id", memberHandler.Update)
		api.POST("/members/:id/archive", memberHandler.Archive)
		api.POST("/members/:id/unfreeze", memberHandler.Unfreeze)
		api.GET("/members/:id/history", memberHandler.History)

		api.GET("/enrollments", enrollmentHandler.List)
		api.POST("/enrollments", enrollmentHandler.Create)
		api.GET("/enrollments/:id", enrollmentHandler.Get)
		api.DELETE("/enrollments/:id", enrollmentHandler.Terminate)
		api.POST("/enrollments/:id/transfer", enrollmentHandler.Transfer)
		api.GET("/enrollments/:id/schedule", enrollmentHandler.Schedule)

		api.POST("/freezes", freezeHandler.Create)
		api.POST("/freezes/:id/close", freezeHandler.Close)
		api.DELETE("/freezes/:id", freezeHandler.Cancel)

		api.GET("/payments", paymentHandler.List)
		api.POST("/payments", paymentHandler.Create)
		api.POST("/payments/:id/refund", paymentHandler.Refund)

		api.GET("/classes", classHandler.List)
		api.POST("/classes", classHandler.Create)
		api.GET("/classes/:id", classHandler.Get)
		api.GET("/instructors", classHandler.Instructors)
		if cfg.Payouts.Enabled {
			api.GET("/instructors/:id/payout", payoutHandler.Payout)
			api.GET("/instructors/:id/payout/statement", payoutHandler.Statement)
		}
		if cfg.Dashboard.Enabled {
			api.GET("/dashboard", dashboardHandler.Summary)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var syncQueue *jobs.Queue
	if cfg.Sync.Enabled {
		syncQueue = jobs.NewQueue("status-sync", func(ctx context.Context, _ jobs.Job) error {
			_, err := statusSvc.SyncMemberStatuses(ctx, clk.Today())
			return err
		}, jobs.QueueConfig{
			Workers: cfg.Sync.WorkerCount,
			Logger:  logr,
		})
		syncQueue.Start(ctx)
		syncQueue.RunEvery(cfg.Sync.Interval, "member-status-sync")
		defer syncQueue.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
