package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acadocs/backend/internal/config"
	"github.com/acadocs/backend/internal/database"
	"github.com/acadocs/backend/internal/handlers"
	"github.com/acadocs/backend/internal/identity"
	"github.com/acadocs/backend/internal/mailer"
	"github.com/acadocs/backend/internal/middleware"
	"github.com/acadocs/backend/internal/notify"
	"github.com/acadocs/backend/internal/services"
	"github.com/acadocs/backend/internal/storage"
	"github.com/acadocs/backend/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}
	if minioClient, ok := storageClient.(*storage.MinIOClient); ok {
		if err := minioClient.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("failed ensuring storage bucket: %v", err)
		}
	}

	var dispatcher notify.Dispatcher = notify.NoopDispatcher{}
	if cfg.FCM.ProjectID != "" && cfg.FCM.CredentialsFile != "" {
		fcm, err := notify.NewFCMDispatcher(context.Background(), cfg.FCM)
		if err != nil {
			log.Fatalf("fcm initialization failed: %v", err)
		}
		dispatcher = fcm
	} else {
		logger.Warn("push_notifications_disabled", map[string]interface{}{
			"reason": "FCM_PROJECT_ID or FCM_CREDENTIALS_FILE not set",
		})
	}

	provider := identity.NewGormProvider(db, cfg.JWT)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP)
	notifier := services.NewNotifier(db, dispatcher)
	requestService := services.NewRequestService(db, storageClient, notifier)

	authHandler := handlers.NewAuthHandler(db, provider, smtpMailer, cfg.Server.FrontendURL)
	usersHandler := handlers.NewUsersHandler(db, provider, smtpMailer)
	requestsHandler := handlers.NewRequestsHandler(requestService)
	statisticsHandler := handlers.NewStatisticsHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(provider, db)

	app := fiber.New(fiber.Config{BodyLimit: 50 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/login/admin", authHandler.LoginAdmin)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/notification-token", authMiddleware.RequireAuth, authHandler.UpdateNotificationToken)
	authRoutes.Post("/password-reset", authHandler.RequestPasswordReset)
	authRoutes.Post("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Post("/", usersHandler.Create)
	userRoutes.Get("/:id", usersHandler.Get)
	userRoutes.Put("/:id", usersHandler.Update)
	userRoutes.Delete("/:id", usersHandler.Delete)

	requestRoutes := api.Group("/requests", authMiddleware.RequireAuth)
	requestRoutes.Post("/", requestsHandler.Submit)
	requestRoutes.Get("/", requestsHandler.List)
	requestRoutes.Get("/mine", requestsHandler.Mine)
	requestRoutes.Get("/search", requestsHandler.Search)
	requestRoutes.Post("/:id/file", requestsHandler.Upload)
	requestRoutes.Put("/:id/status", requestsHandler.UpdateStatus)

	api.Get("/statistics", authMiddleware.RequireAuth, middleware.StaffOnly, statisticsHandler.Get)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
