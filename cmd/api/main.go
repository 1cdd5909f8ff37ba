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

	_ "github.com/noah-isme/edu-report-api/api/swagger"
	"github.com/noah-isme/edu-report-api/internal/handler"
	internalmiddleware "github.com/noah-isme/edu-report-api/internal/middleware"
	"github.com/noah-isme/edu-report-api/internal/repository"
	"github.com/noah-isme/edu-report-api/internal/service"
	"github.com/noah-isme/edu-report-api/pkg/cache"
	"github.com/noah-isme/edu-report-api/pkg/config"
	"github.com/noah-isme/edu-report-api/pkg/database"
	"github.com/noah-isme/edu-report-api/pkg/export"
	"github.com/noah-isme/edu-report-api/pkg/jobs"
	"github.com/noah-isme/edu-report-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-report-api/pkg/middleware/requestid"
	"github.com/noah-isme/edu-report-api/pkg/storage"
)

// @title Edu Report API
// @version 1.0.0
// @description Academic records, ranking and report card service
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	gradeLevelRepo := repository.NewGradeLevelRepository(db)
	termRepo := repository.NewTermRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	remarksRepo := repository.NewRemarksRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	userRepo := repository.NewUserRepository(db)
	jobRepo := repository.NewReportJobRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled && redisClient != nil)

	// Services.
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "edu-report-api",
	})
	studentSvc := service.NewStudentService(studentRepo, gradeLevelRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, gradeLevelRepo, validate, logr)
	gradeLevelSvc := service.NewGradeLevelService(gradeLevelRepo, validate, logr)
	termSvc := service.NewTermService(termRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, subjectRepo, gradeLevelRepo, validate, logr)
	schoolSvc := service.NewSchoolService(schoolRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	scoreSvc := service.NewScoreService(scoreRepo, studentRepo, subjectRepo, termRepo, teacherRepo, cacheSvc, validate, logr)
	remarksSvc := service.NewRemarksService(remarksRepo, studentRepo, termRepo, cacheSvc, validate, logr)
	reportSvc := service.NewReportService(scoreRepo, studentRepo, termRepo, gradeLevelRepo, schoolRepo, remarksRepo, cacheSvc, cfg.Reports.CacheTTL, logr)
	importSvc := service.NewImportService(studentRepo, subjectRepo, scoreRepo, termRepo, cacheSvc, service.ImportConfig{MaxRows: cfg.Imports.MaxRows}, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, termRepo, metricsSvc, logr)

	// Export pipeline.
	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(reportSvc, exportStorage, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	worker := service.NewReportWorker(jobRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("report-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportJobSvc := service.NewExportJobService(jobRepo, queue, exportSvc, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})

	if cfg.Exports.Enabled {
		queue.Start(ctx)
		defer queue.Stop()
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, authSvc, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Student:    handler.NewStudentHandler(studentSvc),
		Subject:    handler.NewSubjectHandler(subjectSvc),
		GradeLevel: handler.NewGradeLevelHandler(gradeLevelSvc),
		Term:       handler.NewTermHandler(termSvc),
		Teacher:    handler.NewTeacherHandler(teacherSvc),
		School:     handler.NewSchoolHandler(schoolSvc),
		User:       handler.NewUserHandler(userSvc),
		Score:      handler.NewScoreHandler(scoreSvc),
		Import:     handler.NewImportHandler(importSvc),
		Report:     handler.NewReportHandler(reportSvc),
		Export:     handler.NewExportHandler(exportJobSvc),
		Remarks:    handler.NewRemarksHandler(remarksSvc),
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
