// Package api exposes the push dispatch service over HTTP: the dispatch
// endpoint, subscription management for the local store, health and metrics.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gridlead/pushgate/internal/conf"
	"github.com/gridlead/pushgate/internal/logging"
	"github.com/gridlead/pushgate/internal/observability"
	"github.com/gridlead/pushgate/internal/subscriptions"
	"github.com/gridlead/pushgate/internal/webpush"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo       *echo.Echo
	Group      *echo.Group
	Settings   *conf.Settings
	Dispatcher *webpush.Dispatcher
	Store      subscriptions.Store

	metrics        *observability.Metrics
	apiLogger      *slog.Logger
	apiLevelVar    *slog.LevelVar
	apiLoggerClose func() error
}

// New creates the API controller and registers all routes on the given echo
// instance. The store may be a NopStore; subscription management routes are
// only mounted for the local SQLite backend. Metrics may be nil.
func New(e *echo.Echo, settings *conf.Settings, dispatcher *webpush.Dispatcher,
	store subscriptions.Store, metrics *observability.Metrics) (*Controller, error) {

	if store == nil {
		store = &subscriptions.NopStore{}
	}

	c := &Controller{
		Echo:       e,
		Settings:   settings,
		Dispatcher: dispatcher,
		Store:      store,
		metrics:    metrics,
	}

	initialLevel := slog.LevelInfo
	if settings.Debug {
		initialLevel = slog.LevelDebug
	}
	c.apiLevelVar = new(slog.LevelVar)
	c.apiLevelVar.Set(initialLevel)

	apiLogger, closeFunc, err := logging.NewFileLogger("logs/api.log", "api", c.apiLevelVar, logging.DefaultFileLoggerConfig())
	if err != nil {
		logging.Warn("Failed to initialize API file logger, logging disabled", "error", err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: c.apiLevelVar})
		c.apiLogger = slog.New(fbHandler).With("service", "api")
		c.apiLoggerClose = func() error { return nil }
	} else {
		c.apiLogger = apiLogger
		c.apiLoggerClose = closeFunc
	}

	c.Group = e.Group("/api/v1")
	c.Group.Use(middleware.Recover())
	c.Group.Use(middleware.BodyLimit("64K"))
	c.Group.Use(c.CORSMiddleware())
	c.Group.Use(c.LoggingMiddleware())

	c.Group.POST("/push", c.HandlePush)
	c.Group.OPTIONS("/push", c.HandlePreflight)

	// The REST backend's rows are owned by the surrounding application;
	// only the local store gets a management surface here.
	if settings.Store.Backend == "sqlite" {
		c.Group.POST("/subscriptions", c.HandleSubscribe)
		c.Group.GET("/subscriptions", c.HandleListSubscriptions)
		c.Group.DELETE("/subscriptions", c.HandleUnsubscribe)
		c.Group.OPTIONS("/subscriptions", c.HandlePreflight)
	}

	e.GET("/healthz", c.HandleHealth)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	return c, nil
}

// HandleHealth reports liveness. It never touches key material or the store
// so a misconfigured deployment still answers probes.
func (c *Controller) HandleHealth(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"name":   c.Settings.Main.Name,
	})
}

// Shutdown releases the controller's resources.
func (c *Controller) Shutdown(ctx context.Context) error {
	if c.apiLoggerClose != nil {
		return c.apiLoggerClose()
	}
	return nil
}
