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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/acadia-labs/academy-crm-api/internal/config"
	"github.com/acadia-labs/academy-crm-api/internal/database"
	"github.com/acadia-labs/academy-crm-api/internal/handler"
	"github.com/acadia-labs/academy-crm-api/internal/middleware"
	"github.com/acadia-labs/academy-crm-api/internal/models"
	"github.com/acadia-labs/academy-crm-api/internal/repository"
	"github.com/acadia-labs/academy-crm-api/internal/router"
	"github.com/acadia-labs/academy-crm-api/internal/scoring"
	"github.com/acadia-labs/academy-crm-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Course{},
		&models.Enrollment{},
		&models.CustomFieldConfig{},
		&models.SystemFieldConfig{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, dashboard caching disabled")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats not configured, scoring events disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	fieldConfigRepo := repository.NewFieldConfigRepository(db)

	var events scoring.EventPublisher
	if publisher := service.NewNATSEventPublisher(natsConn, cfg.EventSubjectBase, logger); publisher != nil {
		events = publisher
	}

	engine := scoring.NewEngine(studentRepo, fieldConfigRepo, events, logger)

	studentService := service.NewStudentService(studentRepo, courseRepo, engine, validate, logger)
	courseService := service.NewCourseService(courseRepo, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, validate, logger)
	fieldConfigService := service.NewFieldConfigService(fieldConfigRepo, engine, validate, logger)
	importService := service.NewImportService(studentService, cfg.ImportMaxSizeMB, logger)
	webhookService := service.NewWebhookService(studentService, cfg.MetaVerifyToken, cfg.MetaAppSecret, logger)
	dashboardService := service.NewDashboardService(studentRepo, enrollmentRepo, redisClient, cfg.DashboardCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:     handler.NewStudentHandler(studentService, logger),
		CourseHandler:      handler.NewCourseHandler(courseService, logger),
		EnrollmentHandler:  handler.NewEnrollmentHandler(enrollmentService, logger),
		FieldConfigHandler: handler.NewFieldConfigHandler(fieldConfigService, logger),
		ImportHandler:      handler.NewImportHandler(importService, logger),
		WebhookHandler:     handler.NewWebhookHandler(webhookService, logger),
		DashboardHandler:   handler.NewDashboardHandler(dashboardService, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
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
