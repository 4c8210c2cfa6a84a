package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/config"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/database"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/logging"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/mail"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/routes"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/services"
	"github.com/ahmetcoskunkizilkaya/auth-service/internal/store"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Ping(startCtx, db); err != nil {
		cancel()
		slog.Error("database unreachable", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(startCtx, db); err != nil {
		cancel()
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	cancel()

	// ERROR+ records also go to system_logs
	pgLogHandler := logging.AttachDB(db)

	st := store.New(db, cfg.DBTimeout)

	// Expired sessions, tokens and old logs
	cleanupDone := make(chan struct{})
	logging.StartCleanup(st, cfg.CleanupInterval, cfg.LogRetention, cleanupDone)

	// Email
	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.MailerSendAPIKey != "" {
		mailer = mail.NewMailerSend(cfg.MailerSendAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	} else {
		slog.Warn("MAILERSEND_API_KEY not set, emails will only be logged")
	}

	// Services
	issuer := services.NewTokenIssuer(st, cfg.AuthSecret, cfg.SessionTTL)
	validator := services.NewSessionValidator(st, cfg.SessionTTL, cfg.SessionUpdateAge)
	verificationService := services.NewVerificationService(st, issuer, cfg,
		mail.VerificationSender(mailer, cfg.EmailTimeout),
		mail.ResetPasswordSender(mailer, cfg.EmailTimeout, cfg.PasswordResetTTL),
	)
	authService := services.NewAuthService(st, issuer, validator, verificationService, cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, verificationService)
	userHandler := handlers.NewUserHandler(authService)
	healthHandler := handlers.NewHealthHandler(st)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    64 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, routes.DefaultLimits, validator, authHandler, userHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
