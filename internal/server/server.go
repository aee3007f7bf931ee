// Package server assembles the HTTP API and runs it until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/handlers"
	"github.com/Ramsey-B/fern/pkg/health"
	"github.com/Ramsey-B/fern/pkg/middleware"
)

// ShutdownTimeout bounds graceful shutdown
const ShutdownTimeout = 15 * time.Second

// APIPrefix is the group the session and form routes live under
const APIPrefix = "/api/v1"

// Config holds the HTTP server settings
type Config struct {
	AppName           string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	MaxHeaderBytes    int
	Origins           []string
}

// ConfigFrom reads the server settings from the service configuration
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		AppName:           cfg.AppName,
		Port:              cfg.Port,
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		Origins:           cfg.Origins(),
	}
}

// Handlers are the route groups served by the API
type Handlers struct {
	Health   *health.Checker
	Embed    *handlers.EmbedHandler
	Sessions *handlers.SessionHandler
	Forms    *handlers.FormsHandler
	// Auth guards the session routes when set
	Auth echo.MiddlewareFunc
}

// New builds the echo instance with the shared middleware chain and every route
func New(cfg Config, h Handlers, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.Origins}))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if h.Health != nil {
		h.Health.RegisterRoutes(e)
	}
	if h.Embed != nil {
		h.Embed.RegisterRoutes(e)
	}

	api := e.Group(APIPrefix)
	if h.Sessions != nil {
		var guards []echo.MiddlewareFunc
		if h.Auth != nil {
			guards = append(guards, h.Auth)
		}
		h.Sessions.RegisterRoutes(api, guards...)
	}
	if h.Forms != nil {
		h.Forms.RegisterRoutes(api)
	}

	return e
}

// Run serves e until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, e *echo.Echo, cfg Config, logger ectologger.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infof("%s listening on %s", cfg.AppName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
