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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/olehkravets/satzwerk/api/swagger"
	"github.com/olehkravets/satzwerk/internal/handler"
	"github.com/olehkravets/satzwerk/internal/middleware"
	"github.com/olehkravets/satzwerk/internal/oracle"
	"github.com/olehkravets/satzwerk/internal/repository"
	"github.com/olehkravets/satzwerk/internal/scheduler"
	"github.com/olehkravets/satzwerk/internal/service"
	"github.com/olehkravets/satzwerk/pkg/cache"
	"github.com/olehkravets/satzwerk/pkg/config"
	"github.com/olehkravets/satzwerk/pkg/database"
	"github.com/olehkravets/satzwerk/pkg/jobs"
	"github.com/olehkravets/satzwerk/pkg/logger"
	corsmiddleware "github.com/olehkravets/satzwerk/pkg/middleware/cors"
	reqidmiddleware "github.com/olehkravets/satzwerk/pkg/middleware/requestid"
	"github.com/olehkravets/satzwerk/pkg/storage"
)

// @title Satzwerk API
// @version 1.0.0
// @description Spaced-repetition translation practice service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	sentenceRepo := repository.NewSentenceRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	assistantRepo := repository.NewAssistantRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	assistantCache := repository.NewAssistantCache(cacheRepo, cfg.Oracle.AssistantTTL)

	oracleClient := oracle.NewClient(cfg.Oracle, logr)
	resolver := oracle.NewResolver(oracleClient, assistantRepo, assistantCache,
		cfg.Oracle.Model, cfg.Oracle.GraderName, cfg.Oracle.GeneratorName, logr)
	grader := oracle.NewGrader(oracleClient, resolver, cfg.Oracle.MaxAttempts, cfg.Oracle.RetryBackoff, logr)
	generator := oracle.NewGenerator(oracleClient, resolver, cfg.Oracle.MaxAttempts, cfg.Oracle.RetryBackoff, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	builder := service.NewSetBuilder(ledgerRepo, sentenceRepo, generator, cfg.Practice, logr)
	sessionSvc := service.NewSessionService(sessionRepo, assignmentRepo, sentenceRepo, attemptRepo, builder, logr)
	authSvc := service.NewAuthService(cfg.Auth, nil, logr)
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Redis.DefaultTTL, logr, cfg.Redis.CacheEnabled)
	statsSvc := service.NewStatsService(statsRepo, cacheSvc, exportStore, signer, cfg.Jobs, logr)

	// The queue and the grading service reference each other: the service
	// enqueues tasks, the queue calls the service's handler.
	var gradingSvc *service.GradingService
	queue := jobs.NewQueue("grading", func(ctx context.Context, job jobs.Job) error {
		return gradingSvc.HandleGradeJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Grading.Workers,
		BufferSize: cfg.Grading.BufferSize,
		MaxRetries: cfg.Grading.MaxRetries,
		RetryDelay: cfg.Grading.RetryDelay,
		Logger:     logr,
	})
	gradingSvc = service.NewGradingService(sessionRepo, assignmentRepo, attemptRepo, ledgerRepo, grader, queue, cfg.Practice, cacheSvc, metricsSvc, nil, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	sched := scheduler.New(sessionSvc, statsSvc, cfg.Jobs, cfg.Exports, logr)
	if err := sched.Start(); err != nil {
		logr.Sugar().Fatalw("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	authHandler := handler.NewAuthHandler(authSvc)
	practiceHandler := handler.NewPracticeHandler(sessionSvc, gradingSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/token", authHandler.Token)
	api.GET("/topics", practiceHandler.Topics)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.POST("/practice/sessions", practiceHandler.StartSession)
	protected.GET("/practice/sessions/today", practiceHandler.TodaySession)
	protected.POST("/practice/sessions/complete", practiceHandler.CompleteSession)
	protected.POST("/practice/translations", practiceHandler.SubmitTranslations)
	protected.GET("/practice/results", practiceHandler.Results)
	protected.GET("/stats/me", statsHandler.Me)
	protected.GET("/stats/weekly", statsHandler.Weekly)
	protected.GET("/stats/weekly/export", statsHandler.ExportWeekly)
	api.GET("/stats/weekly/download", statsHandler.DownloadWeekly)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
