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

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/starcast/talenthub/internal/cache"
	"github.com/starcast/talenthub/internal/config"
	"github.com/starcast/talenthub/internal/database"
	"github.com/starcast/talenthub/internal/handlers"
	"github.com/starcast/talenthub/internal/imaging"
	"github.com/starcast/talenthub/internal/logging"
	"github.com/starcast/talenthub/internal/mailer"
	"github.com/starcast/talenthub/internal/middleware"
	"github.com/starcast/talenthub/internal/realtime"
	"github.com/starcast/talenthub/internal/routes"
	"github.com/starcast/talenthub/internal/services"
	"github.com/starcast/talenthub/internal/storage"
	"github.com/starcast/talenthub/internal/validation"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdoutHandler := logging.Setup(cfg.IsDevelopment())

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	db := database.DB

	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(db, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewFanout(stdoutHandler, dbLogHandler)))

	// Log cleanup
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cache
	appCache := newCache(ctx, cfg)

	// Storage
	store, err := storage.New(storage.Config{
		Type:      cfg.StorageType,
		BasePath:  cfg.StorageBasePath,
		BaseURL:   cfg.StorageBaseURL,
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
	})
	if err != nil {
		slog.Error("storage init failed", "type", cfg.StorageType, "error", err)
		os.Exit(1)
	}

	// Realtime change feed
	hub := realtime.NewHub()
	go hub.Run(ctx)

	// Services
	filter := services.NewContentFilter()
	authService := services.NewAuthService(db, cfg)
	settingsService := services.NewSettingsService(db, appCache, cfg.CacheTTL, hub)
	schemaService := services.NewFormSchemaService(db, appCache, cfg.CacheTTL, hub)
	talentService := services.NewTalentService(db, appCache, cfg.CacheTTL, hub, schemaService, store,
		imaging.NewProcessor(cfg.ImageQuality, cfg.ThumbnailSize))
	contactService := services.NewContactService(db, filter, mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}), cfg.ContactRecipients(), hub)
	feedbackService := services.NewFeedbackService(db, filter, hub)
	userService := services.NewUserAdminService(db, appCache, cfg.CacheTTL, hub)

	// Bootstrap data
	slog.Info("seeding default site settings")
	if err := settingsService.SeedDefaults(ctx); err != nil {
		slog.Error("settings seed failed", "error", err)
	}
	if cfg.SuperAdminEmail != "" {
		if err := authService.EnsureSuperAdmin(cfg.SuperAdminEmail, cfg.SuperAdminPassword); err != nil {
			slog.Error("super admin bootstrap failed", "error", err)
			os.Exit(1)
		}
	}

	// Handlers
	v := validation.New()
	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, settingsService, v),
		Health:    handlers.NewHealthHandler(db),
		Settings:  handlers.NewSettingsHandler(settingsService, v),
		FormField: handlers.NewFormFieldHandler(schemaService, v),
		Talent:    handlers.NewTalentHandler(talentService, v, cfg.MaxUploadMB),
		Contact:   handlers.NewContactHandler(contactService, v),
		Feedback:  handlers.NewFeedbackHandler(feedbackService, v),
		User:      handlers.NewUserHandler(userService, v),
		Realtime:  handlers.NewRealtimeHandler(hub, authService, db, cfg),
	}

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
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Uploaded media for the local storage backend
	if local, ok := store.(*storage.LocalStorage); ok {
		app.Static("/files", local.BasePath(), fiber.Static{MaxAge: 86400})
	}

	// Routes
	routes.Setup(app, cfg, db, h)

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

	cancel()
	contactService.Wait()
	close(cleanupDone)
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := appCache.Close(); err != nil {
		slog.Error("cache close error", "error", err)
	}
	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

// newCache connects to Redis when configured and falls back to an in-process
// cache otherwise, or when Redis is unreachable at startup.
func newCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redisCache, err := cache.NewRedis(pingCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "talenthub")
	if err != nil {
		slog.Warn("redis unavailable, using in-memory cache", "addr", cfg.RedisAddr, "error", err)
		return cache.NewMemory()
	}
	slog.Info("redis cache connected", "addr", cfg.RedisAddr)
	return redisCache
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

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
