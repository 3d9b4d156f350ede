package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"einvoice-console/internal/adapters/backend"
	"einvoice-console/internal/adapters/http/middleware"
	"einvoice-console/internal/adapters/http/routes"
	"einvoice-console/internal/adapters/persistence/models"
	"einvoice-console/internal/adapters/persistence/repositories"
	"einvoice-console/internal/config"
	"einvoice-console/internal/core/authz"
	"einvoice-console/internal/core/services"
	"einvoice-console/internal/core/session"
	"einvoice-console/internal/pkg/events"
	"einvoice-console/internal/pkg/logger"
	"einvoice-console/internal/pkg/sealer"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	lg := logger.New(cfg.IsDev())
	defer func() { _ = lg.Sync() }()
	if !cfg.EnvFile {
		lg.Warn("no .env file found, using environment variables")
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		lg.Fatalw("failed to connect to database", "error", err)
	}
	defer func() { _ = config.CloseDatabase(db) }()

	if err := models.AutoMigrate(db); err != nil {
		lg.Fatalw("failed to auto migrate", "error", err)
	}
	lg.Info("database migration completed")

	seal, err := sealer.New(cfg.Session.SealKey)
	if err != nil {
		lg.Fatalw("failed to init token sealer", "error", err)
	}

	// Session storage
	sessionRepo := repositories.NewSessionRepository(db)
	vault := repositories.NewTokenVault(repositories.NewTokenRepository(db), seal, cfg.Session.MaxAge, lg)

	diag := services.NewMappingDiagnostics(lg)
	bus := events.NewBus()
	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)

	mgr := session.NewManager(sessionRepo, vault, cfg.Session.MaxAge, lg,
		session.WithInvalidator(client),
		session.WithLogoutTimeout(cfg.Backend.LogoutTimeout),
	)
	stopListening := mgr.Listen(bus)
	defer stopListening()

	policy, err := authz.NewPolicy(cfg.Authz.ModelPath, cfg.Authz.PolicyPath)
	if err != nil {
		lg.Fatalw("failed to load access policy", "error", err)
	}
	gate := authz.NewGate(policy, lg)

	// Expired and revoked session rows are swept on a schedule
	sweeper := services.NewSweepService(map[string]services.Sweeper{
		"sessions": sessionRepo,
		"tokens":   vault,
	}, lg)
	if err := sweeper.Start(cfg.Session.SweepSpec); err != nil {
		lg.Fatalw("failed to start sweeper", "spec", cfg.Session.SweepSpec, "error", err)
	}
	defer sweeper.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "e-Invoice Console v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg, lg)

	routes.Setup(app, &routes.Dependencies{
		Config:      cfg,
		DB:          db,
		Backend:     client,
		Manager:     mgr,
		Gate:        gate,
		Bus:         bus,
		Diagnostics: diag,
		Logger:      lg,
	})

	go gracefulShutdown(app, lg)

	lg.Infow("server starting", "port", cfg.Port, "mode", cfg.AppMode, "backend", cfg.Backend.BaseURL)
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Fatalw("failed to start server", "error", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, lg *zap.SugaredLogger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		lg.Errorw("error during shutdown", "error", err)
	}
	lg.Info("server stopped gracefully")
}
