package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/gridlead/pushgate/internal/errors"
	"github.com/gridlead/pushgate/internal/subscriptions"
	"github.com/gridlead/pushgate/internal/webpush"
)

// subscribeRequest registers a browser subscription in the local store.
type subscribeRequest struct {
	Subscription *webpush.Subscription `json:"subscription"`
	UserID       string                `json:"user_id"`
}

// HandleSubscribe stores or refreshes a subscription keyed by endpoint.
func (c *Controller) HandleSubscribe(ctx echo.Context) error {
	var req subscribeRequest
	if err := ctx.Bind(&req); err != nil || req.Subscription == nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": "Missing subscription",
		})
	}
	if _, err := req.Subscription.Audience(); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": "Invalid subscription endpoint",
		})
	}

	record := &subscriptions.Record{
		UserID:   req.UserID,
		Endpoint: req.Subscription.Endpoint,
		P256dh:   req.Subscription.Keys.P256dh,
		Auth:     req.Subscription.Keys.Auth,
	}
	if err := c.Store.Save(ctx.Request().Context(), record); err != nil {
		c.apiLogger.Error("failed to save subscription", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{
			"error": "store_failed",
		})
	}
	return ctx.JSON(http.StatusCreated, map[string]any{"ok": true})
}

// HandleListSubscriptions returns stored subscriptions, newest first.
// Supports limit and offset query parameters; limit defaults to 100.
func (c *Controller) HandleListSubscriptions(ctx echo.Context) error {
	limit := 100
	if v := ctx.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return ctx.JSON(http.StatusBadRequest, map[string]any{
				"error": "invalid limit",
			})
		}
		limit = n
	}
	offset := 0
	if v := ctx.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return ctx.JSON(http.StatusBadRequest, map[string]any{
				"error": "invalid offset",
			})
		}
		offset = n
	}

	records, err := c.Store.List(ctx.Request().Context(), limit, offset)
	if err != nil {
		c.apiLogger.Error("failed to list subscriptions", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{
			"error": "store_failed",
		})
	}
	if records == nil {
		records = []*subscriptions.Record{}
	}
	return ctx.JSON(http.StatusOK, map[string]any{"subscriptions": records})
}

// unsubscribeRequest removes a subscription by endpoint.
type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// HandleUnsubscribe deletes a subscription by endpoint. Unknown endpoints
// succeed: the caller's goal state is already reached.
func (c *Controller) HandleUnsubscribe(ctx echo.Context) error {
	var req unsubscribeRequest
	if err := ctx.Bind(&req); err != nil || req.Endpoint == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]any{
			"error": "Missing endpoint",
		})
	}

	if err := c.Store.DeleteByEndpoint(ctx.Request().Context(), req.Endpoint); err != nil &&
		!errors.Is(err, subscriptions.ErrNotFound) {
		c.apiLogger.Error("failed to delete subscription", "error", err)
		return ctx.JSON(http.StatusInternalServerError, map[string]any{
			"error": "store_failed",
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{"ok": true})
}
