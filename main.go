package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/bihari123/reelpick/config"
	"github.com/bihari123/reelpick/database"
	"github.com/bihari123/reelpick/handlers"
	"github.com/bihari123/reelpick/logger"
	"github.com/bihari123/reelpick/middleware"
	"github.com/bihari123/reelpick/models"
	"github.com/bihari123/reelpick/repositories"
	"github.com/bihari123/reelpick/services"
	"github.com/bihari123/reelpick/storage"
)

func main() {
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer logger.Sync()
	logger.L().Infow("starting reelpick replica", "port", cfg.Server.Port)

	if err := database.InitCatalog(&cfg.Catalog); err != nil {
		logger.L().Fatalw("init catalog failed", "err", err)
	}
	if err := database.DB.AutoMigrate(&models.VideoChunkData{}, &models.VideoFinalData{}); err != nil {
		logger.L().Fatalw("catalog migration failed", "err", err)
	}

	if err := database.InitRedis(&cfg.Redis); err != nil {
		logger.L().Fatalw("init redis failed", "err", err)
	}

	store, err := buildChunkStore(cfg)
	if err != nil {
		logger.L().Fatalw("init chunk store failed", "err", err)
	}

	repoContainer := repositories.BuildContainer(database.DB, database.RedisClient, cfg.Redis.SessionExpire)
	serviceContainer := services.NewContainer(repoContainer, store, services.DefaultIndexer(), cfg.Storage.UploadDir)
	handlers.SetServices(serviceContainer)

	serviceContainer.Cleanup.Start(context.Background())

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestLogger())
	setupRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.L().Infow("server listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		logger.L().Fatalw("server start failed", "err", err)
	}
}

func buildChunkStore(cfg *config.Config) (storage.ChunkStore, error) {
	switch cfg.Storage.Backend {
	case "object":
		return storage.NewObjectChunkStore(context.Background(), &cfg.Storage.Object)
	default:
		return storage.NewLocalChunkStore(cfg.Storage.UploadDir)
	}
}

func setupRoutes(r *gin.Engine) {
	// The edge router health-checks GET / directly.
	r.GET("/", handlers.HealthCheck)

	api := r.Group("/api")
	api.GET("/health", handlers.HealthCheck)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("/upload/initialize", handlers.InitializeUpload)
		protected.POST("/upload/chunk", handlers.UploadChunk)
		protected.GET("/upload/status", handlers.GetUploadStatus)
		protected.GET("/upload/files/:file_id", handlers.GetFinalFile)

		protected.POST("/video/trim", handlers.TrimVideo)
		protected.POST("/video/join", handlers.JoinVideos)
	}
}
