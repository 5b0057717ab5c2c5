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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/takwin-center/takwin-api/api/swagger"
	"github.com/takwin-center/takwin-api/internal/handler"
	internalmiddleware "github.com/takwin-center/takwin-api/internal/middleware"
	"github.com/takwin-center/takwin-api/internal/models"
	"github.com/takwin-center/takwin-api/internal/repository"
	"github.com/takwin-center/takwin-api/internal/service"
	"github.com/takwin-center/takwin-api/internal/timetable"
	"github.com/takwin-center/takwin-api/pkg/cache"
	"github.com/takwin-center/takwin-api/pkg/config"
	"github.com/takwin-center/takwin-api/pkg/database"
	"github.com/takwin-center/takwin-api/pkg/logger"
	corsmiddleware "github.com/takwin-center/takwin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/takwin-center/takwin-api/pkg/middleware/requestid"
)

// @title Takwin Timetable API
// @version 0.1.0
// @description Timetable generation and editing service for the training center
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	userRepo := repository.NewUserRepository(db)
	trainerRepo := repository.NewTrainerRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "takwin-api",
	})
	timetableSvc := service.NewTimetableService(trainerRepo, institutionRepo, timetableRepo, cacheRepo, db, metricsSvc, nil, logr, service.TimetableServiceConfig{
		Generator: timetable.GeneratorConfig{
			UsableDays:   cfg.Scheduler.UsableDays,
			SlotsPerDay:  cfg.Scheduler.SlotsPerDay,
			OuterRetries: cfg.Scheduler.OuterRetries,
			DayRetries:   cfg.Scheduler.DayRetries,
		},
		TeachingWeekday: cfg.Scheduler.TeachingWeekday,
		CacheTTL:        cfg.Scheduler.CacheTTL,
	})
	optimizerSvc := service.NewOptimizerService(trainerRepo, timetableRepo, cacheRepo, db, metricsSvc, nil, logr, cfg.Scheduler.TeachingWeekday)
	editorSvc := service.NewEditorService(trainerRepo, timetableRepo, cacheRepo, db, nil, logr, cfg.Scheduler.TeachingWeekday)
	trainerSvc := service.NewTrainerService(trainerRepo, institutionRepo, db, nil, logr)
	exportSvc := service.NewExportService(timetableSvc, trainerRepo, logr, cfg.Scheduler.SlotsPerDay)

	authHandler := handler.NewAuthHandler(authSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	optimizerHandler := handler.NewOptimizerHandler(optimizerSvc)
	editorHandler := handler.NewEditorHandler(editorSvc)
	trainerHandler := handler.NewTrainerHandler(trainerSvc)
	catalogHandler := handler.NewCatalogHandler()
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(internalmiddleware.JWT(authSvc))
	protected.GET("/auth/me", authHandler.Me)

	protected.GET("/sessions/:sessionId/timetable", timetableHandler.Get)
	protected.GET("/sessions/:sessionId/timetable/trainers", timetableHandler.TrainerSchedules)
	protected.GET("/sessions/:sessionId/timetable/versions", timetableHandler.Versions)
	protected.GET("/timetables/versions/:id", timetableHandler.GetVersion)

	scheduling := protected.Group("")
	scheduling.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator))
	scheduling.POST("/timetables/generate", timetableHandler.Generate)
	scheduling.GET("/sessions/:sessionId/optimizer/issues", optimizerHandler.Analyze)
	scheduling.POST("/optimizer/propose", optimizerHandler.Propose)
	scheduling.POST("/optimizer/apply", optimizerHandler.Apply)
	scheduling.POST("/editor/move", editorHandler.Move)
	scheduling.PUT("/config/trainers", trainerHandler.ReplaceRoster)
	scheduling.PUT("/config/groups", trainerHandler.SetGroupCounts)

	admin := protected.Group("")
	admin.Use(internalmiddleware.RequireRoles(models.RoleAdmin))
	admin.POST("/timetables/versions/:id/publish", timetableHandler.Publish)

	protected.GET("/catalog/modules", catalogHandler.Modules)
	protected.GET("/catalog/modules/:moduleId/syllabus", catalogHandler.Syllabus)
	protected.GET("/catalog/sessions", catalogHandler.Sessions)

	protected.GET("/config/trainers", trainerHandler.Roster)
	protected.GET("/config/trainers/:moduleId", trainerHandler.ModuleRoster)
	protected.GET("/config/groups", trainerHandler.GroupCounts)

	if cfg.Exports.Enabled {
		protected.GET("/sessions/:sessionId/export/csv", exportHandler.CSV)
		protected.GET("/sessions/:sessionId/export/pdf", exportHandler.PDF)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
