package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/openchecklist/checklist-api/api/swagger"
	"github.com/openchecklist/checklist-api/internal/handler"
	"github.com/openchecklist/checklist-api/internal/middleware"
	"github.com/openchecklist/checklist-api/internal/repository"
	"github.com/openchecklist/checklist-api/internal/service"
	"github.com/openchecklist/checklist-api/pkg/cache"
	"github.com/openchecklist/checklist-api/pkg/config"
	"github.com/openchecklist/checklist-api/pkg/database"
	"github.com/openchecklist/checklist-api/pkg/export"
	"github.com/openchecklist/checklist-api/pkg/logger"
	corsmiddleware "github.com/openchecklist/checklist-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openchecklist/checklist-api/pkg/middleware/requestid"
	"github.com/openchecklist/checklist-api/pkg/storage"
)

// @title Checklist API
// @version 1.0.0
// @description Checklist content management and distribution backend
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			redisClient = client
			defer client.Close()
		}
	}

	checklistRepo := repository.NewChecklistRepository(db)
	downloadRepo := repository.NewDownloadRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metrics := service.NewMetricsService()
	pdfExporter := export.NewPDFExporter()
	csvExporter := export.NewCSVExporter()

	var checklistSvc *service.ChecklistService
	var downloadSvc *service.DownloadService
	if cfg.Storage.Mode == config.StorageModeFile {
		fileStore, err := storage.NewLocalStorage(cfg.Storage.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init file storage", "error", err, "dir", cfg.Storage.Dir)
		}
		checklistSvc = service.NewChecklistService(checklistRepo, cacheRepo, fileStore, logr, cfg.Storage, cfg.Cache)
		downloadSvc = service.NewDownloadService(checklistRepo, downloadRepo, fileStore, pdfExporter, metrics, logr)
	} else {
		checklistSvc = service.NewChecklistService(checklistRepo, cacheRepo, nil, logr, cfg.Storage, cfg.Cache)
		downloadSvc = service.NewDownloadService(checklistRepo, downloadRepo, nil, pdfExporter, metrics, logr)
	}
	contributionSvc := service.NewContributionService(contributionRepo, checklistRepo, cacheRepo, nil, logr)
	analyticsSvc := service.NewAnalyticsService(downloadRepo, csvExporter, logr)

	checklistHandler := handler.NewChecklistHandler(checklistSvc, downloadSvc)
	contributionHandler := handler.NewContributionHandler(contributionSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/checklists", checklistHandler.List)
		api.GET("/checklists/:id", checklistHandler.Get)
		api.GET("/checklists/:id/download", checklistHandler.Download)
		api.GET("/checklists/:id/contributions", contributionHandler.ListApproved)
		api.GET("/search", checklistHandler.Search)
		api.GET("/categories", checklistHandler.Categories)
		api.GET("/categories/:category/checklists", checklistHandler.ByCategory)
		api.GET("/stats", checklistHandler.Stats)
		api.POST("/contributions", contributionHandler.Submit)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKey(cfg.Auth.AdminKey))
	{
		admin.POST("/checklists", checklistHandler.Create)
		admin.PUT("/checklists/:id", checklistHandler.Update)
		admin.POST("/checklists/:id/file", checklistHandler.UploadFile)
		admin.DELETE("/checklists/:id", checklistHandler.Delete)
		admin.GET("/contributions", contributionHandler.ListPending)
		admin.POST("/contributions/:id/review", contributionHandler.Review)
		admin.GET("/contributions/stats", contributionHandler.Stats)
		admin.GET("/analytics/downloads", analyticsHandler.Downloads)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "storage_mode", cfg.Storage.Mode)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
