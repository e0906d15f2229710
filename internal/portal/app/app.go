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

	"github.com/redis/go-redis/v9"

	httpapi "github.com/laeyue/msu-iit-connect/internal/portal/http"
	"github.com/laeyue/msu-iit-connect/internal/portal/realtime"
	"github.com/laeyue/msu-iit-connect/internal/portal/service"
	"github.com/laeyue/msu-iit-connect/internal/portal/store"
	"github.com/laeyue/msu-iit-connect/internal/portal/store/drivers/sqlite"
	"github.com/laeyue/msu-iit-connect/pkg/cryptox"
	"github.com/laeyue/msu-iit-connect/pkg/jwtx"
	"github.com/laeyue/msu-iit-connect/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the portal service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	broker realtime.Broker
	signer *jwtx.Signer

	authService    *service.AuthService
	rolesService   *service.RolesService
	profileService *service.ProfileService
	feedService    *service.FeedService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portal-service",
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

	signer, err := jwtx.NewSigner(cfg.Issuer, cfg.AccessTTL)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer

	app.initBroker()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("portal service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "err", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "err", err)
		}
	}

	// Closing the broker ends every open change stream.
	if err := app.broker.Close(); err != nil {
		app.logger.Error("error closing broker", "err", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "err", err)
		return err
	}

	app.logger.Info("portal service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
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

// initBroker selects the change-event fan-out driver. With Redis configured,
// events reach subscribers on every node; otherwise an in-process hub serves
// single-node deployments.
func (app *Application) initBroker() {
	if app.cfg.RedisAddr == "" {
		app.broker = realtime.NewMemoryBroker(app.logger)
		app.logger.Info("realtime broker enabled (memory mode)")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr: app.cfg.RedisAddr,
		DB:   app.cfg.RedisDB,
	})
	app.broker = realtime.NewRedisBroker(client, app.logger)
	app.logger.Info("realtime broker enabled (redis mode)", "addr", app.cfg.RedisAddr)
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:  app.db,
		Signer: app.signer,
	}
	app.rolesService = &service.RolesService{Store: app.db}
	app.profileService = &service.ProfileService{Store: app.db}
	app.feedService = &service.FeedService{
		Store:  app.db,
		Broker: app.broker,
		Logger: app.logger,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer.Verifier(),
		BuildVersion,
		app.db,
		app.broker,
		app.logger,
	)

	router.AuthService = app.authService
	router.RolesService = app.rolesService
	router.ProfileService = app.profileService
	router.FeedService = app.feedService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
