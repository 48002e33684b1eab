package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/gateway/backend"
	"github.com/aussiebroadwan/learnhub/internal/gateway/edge"
	httpapi "github.com/aussiebroadwan/learnhub/internal/gateway/http"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/jwtx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application is the gateway process: config, backend client, edge gate
// and HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	backend *backend.Client
	gate    *edge.Gate

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "learnhub-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if strings.TrimSpace(cfg.BackendURL) == "" {
		app.logger.Warn("BACKEND_URL not set, every backend call and renewal will fail")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		app.logger.Warn("JWT_SECRET not set, every protected page will redirect to login")
	}

	app.initBackend()
	app.initGate()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("gateway starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"protected", app.cfg.ProtectedPaths,
	)

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
	app.logger.Info("shutting down gateway...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
			return err
		}
	}

	app.logger.Info("gateway stopped")
	return nil
}

// Handler is the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) initBackend() {
	app.backend = backend.New(backend.Config{
		BaseURL:    app.cfg.BackendURL,
		HTTPClient: &http.Client{Timeout: app.cfg.BackendTimeout},
		Cookies: backend.CookieConfig{
			Policy: httpx.CookiePolicy{
				Domain:   app.cfg.CookieDomain,
				Secure:   app.cfg.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			},
			AccessName:    app.cfg.AccessCookieName,
			RefreshName:   app.cfg.RefreshCookieName,
			AccessMaxAge:  app.cfg.AccessCookieTTL,
			RefreshMaxAge: app.cfg.RefreshCookieTTL,
		},
		Logger: app.logger,
	})
}

func (app *Application) initGate() {
	app.gate = edge.New(edge.Config{
		Protected:      edge.NewPathMatcher(app.cfg.ProtectedPaths...),
		Verifier:       jwtx.NewVerifierHS256(app.cfg.JWTSecret, jwtx.VerifyOptions{Leeway: 5 * time.Second}),
		Renewer:        app.backend,
		LoginPath:      app.cfg.LoginPath,
		AccessCookie:   app.cfg.AccessCookieName,
		RenewalTimeout: app.cfg.RenewalTimeout,
		Logger:         app.logger,
	})
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.backend, app.gate, BuildVersion, app.logger)
	router.StaticDir = app.cfg.StaticDir
	router.SecretConfigured = strings.TrimSpace(app.cfg.JWTSecret) != ""
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
