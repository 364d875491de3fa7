package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caremypark/caremypark/internal/park/blob/drivers/fs"
	httpapi "github.com/caremypark/caremypark/internal/park/http"
	"github.com/caremypark/caremypark/internal/park/policy"
	"github.com/caremypark/caremypark/internal/park/service"
	"github.com/caremypark/caremypark/internal/park/store"
	"github.com/caremypark/caremypark/internal/park/store/drivers/sqlite"
	"github.com/caremypark/caremypark/pkg/cryptox"
	"github.com/caremypark/caremypark/pkg/jwtx"
	"github.com/caremypark/caremypark/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the report service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	signer   *jwtx.Signer
	verifier *jwtx.Verifier

	// Services
	authService         *service.AuthService
	reportService       *service.ReportService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "caremypark",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initSessionKeys(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	// Provision the initial authority account on a fresh database.
	if cfg.BootstrapEmail != "" && cfg.BootstrapPassword != "" {
		if err := app.authService.Bootstrap(context.Background(), cfg.BootstrapEmail, cfg.BootstrapPassword); err != nil {
			_ = app.db.Close()
			return nil, fmt.Errorf("failed to bootstrap authority account: %w", err)
		}
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("caremypark service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down caremypark service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("caremypark service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initSessionKeys loads the Ed25519 session signing key, or generates an
// ephemeral one. Ephemeral mode invalidates live sessions on restart.
func (app *Application) initSessionKeys() error {
	if app.cfg.SessionKeyFile == "" {
		signer, verifier, err := jwtx.NewEphemeralKeypair(app.cfg.Issuer)
		if err != nil {
			return fmt.Errorf("failed to generate session keys: %w", err)
		}
		app.signer, app.verifier = signer, verifier
		app.logger.Warn("using ephemeral session keys; restarts invalidate live sessions")
		return nil
	}

	pemKey, err := os.ReadFile(app.cfg.SessionKeyFile)
	if err != nil {
		return fmt.Errorf("failed to read session key file: %w", err)
	}
	signer, verifier, err := jwtx.NewKeypairFromPEM(pemKey, app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to load session key: %w", err)
	}
	app.signer, app.verifier = signer, verifier
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	authService, err := service.NewAuthService(
		app.db,
		app.signer,
		app.cfg.Issuer,
		app.cfg.SessionTTL,
		app.cfg.ChallengeTTL,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}
	app.authService = authService

	blobs, err := fs.NewStore(app.cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize photo storage: %w", err)
	}

	app.reportService = &service.ReportService{
		Store:  app.db,
		Blobs:  blobs,
		Policy: policy.Engine{AnonymousTracking: app.cfg.AnonymousTracking},
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.ReportService = app.reportService
	router.PublicBaseURL = app.cfg.PublicBaseURL
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
