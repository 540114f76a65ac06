package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/projectdesk/review-api/internal/config"
	"github.com/projectdesk/review-api/internal/database"
	"github.com/projectdesk/review-api/internal/handler"
	"github.com/projectdesk/review-api/internal/middleware"
	"github.com/projectdesk/review-api/internal/models"
	"github.com/projectdesk/review-api/internal/repository"
	"github.com/projectdesk/review-api/internal/router"
	"github.com/projectdesk/review-api/internal/service"
	cloud "github.com/projectdesk/review-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Application{}, &models.AuditLog{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		cloudService, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cloudService
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	applicationRepo := repository.NewApplicationRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)
	statsRepo := repository.NewReviewStatsRepository(db)

	auditService := service.NewAuditService(auditLogRepo, logger)
	applicationService := service.NewApplicationService(applicationRepo, auditLogRepo, auditService, validate, uploader, logger)
	reviewService := service.NewReviewService(applicationRepo, auditLogRepo, auditService, validate, logger)
	statsService := service.NewReviewStatsService(statsRepo, redisClient, cfg.StatsCacheTTL, logger)

	applicationHandler := handler.NewApplicationHandler(applicationService, auditService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, statsService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		ApplicationHandler: applicationHandler,
		ReviewHandler:      reviewHandler,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
		ReviewRateLimiter:  middleware.RateLimit("admin-review", cfg.ReviewRateLimit, cfg.ReviewRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
