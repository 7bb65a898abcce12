package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/karwaan/bazaar/internal/accounts/http"
	"github.com/karwaan/bazaar/internal/accounts/identity"
	"github.com/karwaan/bazaar/internal/accounts/service"
	"github.com/karwaan/bazaar/internal/accounts/store"
	"github.com/karwaan/bazaar/internal/accounts/store/drivers/sqlite"
	"github.com/karwaan/bazaar/pkg/authx"
	"github.com/karwaan/bazaar/pkg/cryptox"
	"github.com/karwaan/bazaar/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the account service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	verifier authx.Verifier
	provider service.IdentityProvider

	accountService      *service.AccountService
	verificationService *service.VerificationService
	policyService       *service.PolicyService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "accounts-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("ACCOUNTS_JWT_SECRET is required")
	}
	app.verifier = authx.NewHS256([]byte(cfg.JWTSecret), cfg.Issuer)

	// Verification secrets are encrypted at rest under this key.
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("accounts service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	app.logger.Info("shutting down accounts service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("accounts service stopped")
	return nil
}

// initDatabase opens the database and applies migrations.
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

// initServices initializes all business logic services.
func (app *Application) initServices() {
	if app.cfg.IdentityBaseURL != "" {
		app.provider = identity.NewClient(app.cfg.IdentityBaseURL, app.cfg.IdentityToken)
		app.logger.Info("identity provider configured", "url", app.cfg.IdentityBaseURL)
	} else {
		app.provider = identity.NewNoop(app.logger)
		app.logger.Info("no identity provider configured, using noop")
	}

	app.accountService = &service.AccountService{
		Store:    app.db,
		Identity: app.provider,
	}
	app.verificationService = &service.VerificationService{
		Store:    app.db,
		Accounts: app.accountService,
		Issuer:   app.cfg.Issuer,
		CodeTTL:  app.cfg.VerificationCodeTTL,
	}
	app.policyService = &service.PolicyService{
		Accounts:     app.accountService,
		Verification: app.verificationService,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.PolicyService = app.policyService
	router.InternalToken = app.cfg.InternalToken
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
