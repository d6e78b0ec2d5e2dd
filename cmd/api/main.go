package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/yuliutaustin/classhub-api/api/swagger"
	"github.com/yuliutaustin/classhub-api/internal/handler"
	"github.com/yuliutaustin/classhub-api/internal/middleware"
	"github.com/yuliutaustin/classhub-api/internal/repository"
	"github.com/yuliutaustin/classhub-api/internal/service"
	"github.com/yuliutaustin/classhub-api/pkg/cache"
	"github.com/yuliutaustin/classhub-api/pkg/config"
	"github.com/yuliutaustin/classhub-api/pkg/database"
	"github.com/yuliutaustin/classhub-api/pkg/logger"
	corsmiddleware "github.com/yuliutaustin/classhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/yuliutaustin/classhub-api/pkg/middleware/requestid"
	"github.com/yuliutaustin/classhub-api/pkg/storage"
)

// @title ClassHub API
// @version 1.0.0
// @description Blog, class materials library and course workspace backend
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	blobs, err := storage.NewLocalBlobStore(cfg.Uploads.StorageDir, cfg.Uploads.PublicBasePath)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	var cacheSvc *service.CacheService
	if cfg.Blog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, blog cache disabled", "error", err)
			cacheSvc = service.NewCacheService(nil, metrics, cfg.Blog.CacheTTL, logr, false)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Blog.CacheTTL, logr, true)
		}
	} else {
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Blog.CacheTTL, logr, false)
	}

	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	fileRepo := repository.NewCourseFileRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	postRepo := repository.NewPostRepository(db)
	taxonomyRepo := repository.NewTaxonomyRepository(db)
	userRepo := repository.NewUserRepository(db)

	courseSvc := service.NewCourseService(courseRepo, sectionRepo, noteRepo, fileRepo, nil, logr)
	sectionSvc := service.NewSectionService(sectionRepo, courseRepo, nil, logr)
	noteSvc := service.NewNoteService(noteRepo, courseRepo, sectionRepo, nil, logr)
	fileSvc := service.NewCourseFileService(fileRepo, courseRepo, sectionRepo, blobs, metrics, cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.AllowedMIMEs, nil, logr)
	folderSvc := service.NewFolderService(folderRepo, nil, logr)
	materialSvc := service.NewMaterialService(materialRepo, folderRepo, blobs, blobs, signer, metrics, cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.AllowedMIMEs, nil, logr)
	blogSvc := service.NewBlogService(postRepo, taxonomyRepo, cacheSvc, nil, logr)
	taxonomySvc := service.NewTaxonomyService(taxonomyRepo, cacheSvc, nil, logr)
	userSvc := service.NewUserService(userRepo, nil, logr)

	if cfg.Uploads.GCEnabled {
		sweep := service.NewSweepService(blobs, metrics, cfg.Uploads.GCInterval, logr, fileRepo, materialRepo)
		sweep.Start(context.Background())
		defer sweep.Stop()
	}

	courseHandler := handler.NewCourseHandler(courseSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	noteHandler := handler.NewNoteHandler(noteSvc)
	fileHandler := handler.NewCourseFileHandler(fileSvc)
	folderHandler := handler.NewFolderHandler(folderSvc, materialSvc)
	materialHandler := handler.NewMaterialHandler(materialSvc)
	postHandler := handler.NewPostHandler(blogSvc)
	taxonomyHandler := handler.NewTaxonomyHandler(taxonomySvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

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
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.Static(cfg.Uploads.PublicBasePath, blobs.BaseDir())

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/courses", courseHandler.List)
		api.POST("/courses", courseHandler.Create)
		api.PUT("/courses/:id", courseHandler.Update)
		api.GET("/courses/:slug", courseHandler.Get)

		api.POST("/courses/sections", sectionHandler.Create)
		api.PUT("/courses/sections", sectionHandler.Update)
		api.DELETE("/courses/sections", sectionHandler.Delete)

		api.POST("/courses/notes", noteHandler.Create)
		api.DELETE("/courses/notes", noteHandler.Delete)

		api.POST("/courses/files", fileHandler.Upload)
		api.DELETE("/courses/files", fileHandler.Delete)

		api.GET("/materials", materialHandler.Library)
		api.POST("/materials", materialHandler.Upload)
		api.GET("/materials/:id", materialHandler.Get)
		api.PUT("/materials/:id", materialHandler.Update)
		api.DELETE("/materials/:id", materialHandler.Delete)
		api.GET("/materials/:id/download", materialHandler.Download)

		api.POST("/folders", folderHandler.Create)
		api.GET("/folders/:id", folderHandler.Get)
		api.PUT("/folders/:id", folderHandler.Update)
		api.DELETE("/folders/:id", folderHandler.Delete)

		api.GET("/posts", postHandler.List)
		api.POST("/posts", postHandler.Create)
		api.GET("/posts/:slug", postHandler.Get)
		api.PUT("/posts/:id", postHandler.Update)
		api.DELETE("/posts/:id", postHandler.Delete)
		api.PUT("/posts/:id/tags", postHandler.ReplaceTags)

		api.GET("/categories", taxonomyHandler.ListCategories)
		api.POST("/categories", taxonomyHandler.CreateCategory)
		api.DELETE("/categories/:id", taxonomyHandler.DeleteCategory)

		api.GET("/tags", taxonomyHandler.ListTags)
		api.POST("/tags", taxonomyHandler.CreateTag)
		api.DELETE("/tags/:id", taxonomyHandler.DeleteTag)

		api.POST("/users", userHandler.Create)
		api.GET("/users/:id", userHandler.Get)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
