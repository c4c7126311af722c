package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// corsAllowHeaders lists the request headers browser clients are allowed to
// send, matching what the GridLead web client includes on dispatch calls.
const corsAllowHeaders = "authorization, x-client-info, apikey, content-type"

// CORSMiddleware attaches the permissive CORS headers to every response and
// answers OPTIONS requests directly. Preflight never reaches a handler, so it
// succeeds regardless of VAPID or store configuration.
func (c *Controller) CORSMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			h := ctx.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			h.Set(echo.HeaderAccessControlAllowMethods, "POST, GET, DELETE, OPTIONS")

			if ctx.Request().Method == http.MethodOptions {
				return ctx.JSON(http.StatusOK, map[string]any{"ok": true})
			}
			return next(ctx)
		}
	}
}

// HandlePreflight answers OPTIONS for routes registered explicitly. The CORS
// middleware normally short-circuits before this runs.
func (c *Controller) HandlePreflight(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{"ok": true})
}

// LoggingMiddleware emits one structured log line per request and feeds the
// HTTP metrics.
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err)
			}

			req := ctx.Request()
			res := ctx.Response()
			duration := time.Since(start)

			c.apiLogger.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"ip", ctx.RealIP(),
				"duration_ms", duration.Milliseconds())

			if c.metrics != nil && c.metrics.HTTP != nil {
				path := ctx.Path()
				if path == "" {
					path = req.URL.Path
				}
				c.metrics.HTTP.RecordRequest(req.Method, path, strconv.Itoa(res.Status))
				c.metrics.HTTP.ObserveRequestDuration(req.Method, path, duration)
			}
			return nil
		}
	}
}
