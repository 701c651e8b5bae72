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
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/config"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/database"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/dto"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/logging"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/notify"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/rate"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/repository"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/routes"
	"github.com/ahmetcoskunkizilkaya/carepoint-auth/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetention, cleanupDone)

	// OTP throttling is optional; without Redis requests are not limited
	var limiter services.Limiter
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, otp limiter will fail open", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		limiter = rate.NewLimiter(rdb, cfg.OTPCooldown, cfg.OTPWindow, cfg.OTPMaxPerWindow)
	} else {
		slog.Warn("REDIS_ADDR not set, otp rate limiting disabled")
	}

	// Services
	users := repository.NewUserRepository(db)
	hasher := services.NewBcryptHasher(cfg.BcryptCost)
	tokens := services.NewTokenIssuer(cfg)
	authService, err := services.NewAuthService(users, hasher, tokens, cfg)
	if err != nil {
		slog.Error("auth service init failed", "error", err)
		os.Exit(1)
	}
	challengeService := services.NewChallengeService(users, hasher, notify.FromConfig(cfg), limiter, cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, challengeService, cfg)
	healthHandler := handlers.NewHealthHandler(db)

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

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, authHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
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

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Message: message})
}
