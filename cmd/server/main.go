package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/soonsulleng/guide-backend/config"
	"github.com/soonsulleng/guide-backend/internal/app/controller"
	"github.com/soonsulleng/guide-backend/internal/app/repository"
	"github.com/soonsulleng/guide-backend/internal/app/service"
	"github.com/soonsulleng/guide-backend/internal/db"
	"github.com/soonsulleng/guide-backend/internal/middleware"
	"github.com/soonsulleng/guide-backend/internal/router"
	"github.com/soonsulleng/guide-backend/internal/storage"
	"github.com/soonsulleng/guide-backend/pkg/imageurl"
	"github.com/soonsulleng/guide-backend/pkg/logger"
	redisclient "github.com/soonsulleng/guide-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Soonsulleng Guide Backend Server", map[string]interface{}{
		"environment":   cfg.Server.Environment,
		"port":          cfg.Server.Port,
		"log_level":     logLevel,
		"image_backend": cfg.Image.Backend,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Token revocation is optional
	var blacklist service.TokenBlacklist
	if cfg.Redis.Enabled {
		client, err := redisclient.Init(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer client.Close()
		blacklist = redisclient.NewTokenBlacklist(client)
	}

	imageStore, err := newImageStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize image storage", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())

	// Initialize services
	identityService := service.NewIdentityService(userRepo, cfg.JWT.Secret, blacklist)
	authService := service.NewAuthService(
		userRepo,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	reviewService := service.NewReviewService(
		reviewRepo,
		imageStore,
		imageurl.NewRewriter(cfg.Image.PublicBaseURL, cfg.Image.StorageRoot),
	)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	reviewController := controller.NewReviewController(reviewService, cfg.Image.MaxUploadSize)

	authMiddleware := middleware.NewAuthMiddleware(identityService)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := router.NewRouter(
		authController,
		reviewController,
		authMiddleware,
		registry,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}

func newImageStore(cfg *config.Config) (storage.ImageStore, error) {
	switch cfg.Image.Backend {
	case config.ImageBackendS3:
		return storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.Image.StorageRoot,
		), nil
	default:
		return storage.NewLocalStorage(cfg.Image.StorageRoot)
	}
}
