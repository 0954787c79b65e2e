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

	httpapi "github.com/schmeconomics/schmeconomics/internal/auth/http"
	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/service"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/internal/auth/store/drivers/postgres"
	"github.com/schmeconomics/schmeconomics/internal/auth/store/drivers/sqlite"
	"github.com/schmeconomics/schmeconomics/pkg/clockx"
	"github.com/schmeconomics/schmeconomics/pkg/cryptox"
	"github.com/schmeconomics/schmeconomics/pkg/jwtx"
	"github.com/schmeconomics/schmeconomics/pkg/slogx"
)

// BuildVersion is overridden at build time with
// -ldflags "-X github.com/schmeconomics/schmeconomics/internal/auth/app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application owns the auth service and everything it depends on.
type Application struct {
	cfg    Config
	logger *slog.Logger
	clock  clockx.Clock

	db      store.Store
	hasher  *cryptox.Argon2Hasher
	secrets *jwtx.SecretManager
	tokens  *jwtx.AccessTokenProvider

	refreshService      *service.RefreshTokenService
	authService         *service.AuthService
	userService         *service.UserService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New builds the application from cfg: it opens and migrates the database,
// wires the token providers and services, and bootstraps the first admin
// when no user exists.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:   cfg,
		clock: clockx.System{},
		logger: slogx.New(slogx.Config{
			Service: "schmeconomics-auth",
			Version: BuildVersion,
			Env:     cfg.Server.Env,
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	ctx := slogx.WithContext(context.Background(), app.logger)
	if err := app.bootstrap(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if err := app.housekeepingService.Start(); err != nil {
		return fmt.Errorf("failed to start housekeeping: %w", err)
	}

	app.logger.Info("auth service starting", "port", app.cfg.Server.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.db.Close()
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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.Database.Driver {
	case DriverPostgres:
		db, err = postgres.NewStore(app.cfg.Database.URL)
	default:
		db, err = sqlite.NewStore(sqlite.DSN(app.cfg.Database.File))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.Database.Driver)
	return nil
}

func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.Secrets.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewArgon2Hasher(pepper)

	masterKey, ephemeral, err := cryptox.LoadMasterKey(app.cfg.Secrets.MasterKeyPath, app.cfg.Secrets.MasterKey)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	if ephemeral {
		app.logger.Warn("no master key configured, stored signing secrets will not survive a restart")
	}
	sealer, err := cryptox.NewSealer(masterKey)
	if err != nil {
		return fmt.Errorf("failed to create sealer: %w", err)
	}

	app.secrets, err = jwtx.NewSecretManager(jwtx.SecretManagerOptions{
		Store:      store.NewSecretStoreAdapter(app.db, sealer),
		Lifetime:   app.cfg.Secrets.Lifetime,
		SecretSize: app.cfg.Secrets.Size,
		Clock:      app.clock,
	})
	if err != nil {
		return fmt.Errorf("failed to create secret manager: %w", err)
	}

	alg, err := jwtx.ParseHashAlgorithm(app.cfg.Tokens.Algorithm)
	if err != nil {
		return err
	}
	app.tokens, err = jwtx.NewAccessTokenProvider(jwtx.AccessTokenOptions{
		Secrets:   app.secrets,
		Algorithm: alg,
		Issuer:    app.cfg.Tokens.Issuer,
		Audience:  app.cfg.Tokens.Audience,
		Lifetime:  app.cfg.Tokens.Lifetime,
		Clock:     app.clock,
	})
	if err != nil {
		return fmt.Errorf("failed to create access token provider: %w", err)
	}

	app.refreshService, err = service.NewRefreshTokenService(app.db, app.cfg.RefreshTokenConfig(), app.clock)
	if err != nil {
		return fmt.Errorf("failed to create refresh token service: %w", err)
	}

	app.authService = &service.AuthService{
		Store:   app.db,
		Hasher:  app.hasher,
		Tokens:  app.tokens,
		Refresh: app.refreshService,
	}
	app.userService = &service.UserService{
		Store:  app.db,
		Hasher: app.hasher,
		Clock:  app.clock,
	}
	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Users: app.userService,
	}
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.Housekeeping.Schedule,
		app.cfg.Housekeeping.FamilyRetention,
		app.cfg.Secrets.Lifetime,
	)
	return nil
}

// bootstrap creates the configured admin on an empty user table. A
// generated password is logged once and never again.
func (app *Application) bootstrap(ctx context.Context) error {
	done, err := app.bootstrapService.IsBootstrapped(ctx)
	if err != nil {
		return fmt.Errorf("failed to check bootstrap state: %w", err)
	}
	if done {
		return nil
	}

	admin, password, err := app.bootstrapService.Bootstrap(ctx, domain.BootstrapData{
		AdminName:     app.cfg.Bootstrap.AdminName,
		AdminPassword: app.cfg.Bootstrap.AdminPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	if app.cfg.Bootstrap.AdminPassword == "" {
		app.logger.Warn("generated bootstrap admin password, change it after first sign-in",
			"admin_name", admin.Name,
			"admin_password", password,
		)
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.tokens,
		app.secrets,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.UserService = app.userService
	router.AccessTokenLifetime = app.tokens.Lifetime()
	router.TrustProxyHeaders = app.cfg.Server.TrustProxyHeaders
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
