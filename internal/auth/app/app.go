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

	httpapi "github.com/meongtory/auth/internal/auth/http"
	"github.com/meongtory/auth/internal/auth/oauth"
	"github.com/meongtory/auth/internal/auth/service"
	"github.com/meongtory/auth/internal/auth/store"
	"github.com/meongtory/auth/internal/auth/store/drivers/sqlite"
	"github.com/meongtory/auth/pkg/jwtx"
	"github.com/meongtory/auth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the auth service together: store, token codec,
// services and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	codec *jwtx.Codec

	tokenService      *service.TokenService
	accountService    *service.AccountService
	federationService *service.FederationService
	oauthClients      *oauth.Clients

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. A missing
// or undecodable AUTH_JWT_SECRET is a startup error: nothing useful can
// run without a signing key.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	codec, err := jwtx.NewCodec(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	app.db = db
	return nil
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{Codec: app.codec, Store: app.db}
	app.accountService = &service.AccountService{Store: app.db, Tokens: app.tokenService}
	app.federationService = &service.FederationService{Store: app.db, Tokens: app.tokenService}
	app.oauthClients = oauth.NewClients(app.cfg.Google, app.cfg.Kakao, app.cfg.Naver)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.codec, app.cfg.FrontendURL, BuildVersion, app.db, app.logger)
	router.TokenService = app.tokenService
	router.AccountService = app.accountService
	router.FederationService = app.federationService
	router.OAuthClients = app.oauthClients
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown drains in-flight requests and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		return err
	}

	if err := app.db.Close(); err != nil {
		app.logger.Warn("closing store", "err", err)
	}

	app.logger.Info("auth service stopped")
	return nil
}
