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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 0.1.0
// @description Weekly timetable generation and faculty allocation for departments
// @BasePath /api/v1
// @schemes http
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			// Proposals fall back to process memory.
			logr.Warn("redis unavailable, proposal cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Scheduler.ProposalTTL, logr, redisClient != nil && cfg.Scheduler.ProposalCache)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var queue *jobs.Queue
	if cfg.Scheduler.Enabled {
		timetableHandler, q := buildTimetableHandler(db, cacheSvc, metrics, validate, logr, cfg)
		queue = q
		queue.Start(ctx)

		tokens := service.NewTokenService(cfg.JWT.Secret)
		api := r.Group(cfg.APIPrefix, middleware.JWT(tokens))
		registerTimetableRoutes(api, timetableHandler, logr)
	} else {
		logr.Info("scheduler disabled, timetable routes not registered")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	if queue != nil {
		queue.Stop()
	}
}

func buildTimetableHandler(
	db *sqlx.DB,
	cacheSvc *service.CacheService,
	metrics *service.MetricsService,
	validate *validator.Validate,
	logr *zap.Logger,
	cfg *config.Config,
) (*handler.TimetableHandler, *jobs.Queue) {
	subjects := repository.NewSubjectRepository(db)
	timetables := repository.NewTimetableRepository(db)
	builder := service.NewFacultyAllocationBuilder(
		repository.NewFacultyRepository(db),
		repository.NewFacultyAssignmentRepository(db),
		repository.NewClassCounselorRepository(db),
		subjects,
		timetables,
		logr,
	)

	timetableSvc := service.NewTimetableService(
		subjects,
		repository.NewSchedulingConfigRepository(db),
		timetables,
		builder,
		cacheSvc,
		metrics,
		validate,
		logr,
		service.TimetableServiceConfig{
			ProposalTTL:       cfg.Scheduler.ProposalTTL,
			GenerationTimeout: cfg.Scheduler.GenerationTimeout,
			TheoryGuard:       cfg.Scheduler.TheoryGuard,
			LabAttempts:       cfg.Scheduler.LabAttempts,
		},
	)

	batchSvc := service.NewTimetableBatchService(timetableSvc, metrics, validate, logr, service.TimetableBatchServiceConfig{
		MaxRetries: cfg.Batch.Retries,
	})
	queue := jobs.NewQueue("timetable-batch", batchSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Batch.Workers,
		MaxRetries: cfg.Batch.Retries,
		RetryDelay: cfg.Batch.RetryDelay,
		Logger:     logr,
	})
	batchSvc.UseQueue(queue)

	return handler.NewTimetableHandler(timetableSvc, batchSvc), queue
}

func registerTimetableRoutes(api *gin.RouterGroup, h *handler.TimetableHandler, logr *zap.Logger) {
	manage := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	timetables := api.Group("/timetables")
	timetables.GET("", middleware.DepartmentScope(), h.List)
	timetables.POST("/generate", manage, middleware.Audit(logr, "timetable.generate"), h.Generate)
	timetables.POST("/save", manage, middleware.Audit(logr, "timetable.save"), h.Save)
	timetables.POST("/validate/conflicts", h.ValidateConflicts)
	timetables.POST("/validate/labs", h.ValidateLabs)
	timetables.POST("/batch", manage, middleware.Audit(logr, "timetable.batch"), h.EnqueueBatch)
	timetables.GET("/batch/:id", h.BatchStatus)

	class := timetables.Group("/:departmentId/:year/:section", middleware.DepartmentScope())
	class.GET("", h.Get)
	class.GET("/export", h.Export)
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
