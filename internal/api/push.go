package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gridlead/pushgate/internal/errors"
	"github.com/gridlead/pushgate/internal/webpush"
)

// pushRequest is the dispatch request body. The payload travels out of band;
// it is accepted here for logging and correlation only.
type pushRequest struct {
	Subscription *webpush.Subscription `json:"subscription"`
	Payload      *webpush.Message      `json:"payload"`
}

// messageIDHeader carries the dispatch correlation ID on success responses.
const messageIDHeader = "X-Message-ID"

// HandlePush dispatches one push notification.
//
// Response contract:
//   - 200 {ok:true} when the push service accepted the message
//   - 400 {error:"Missing subscription"} when no subscription was supplied
//   - 400 {error:"Invalid subscription endpoint"} for a bad endpoint URL
//   - 500 {error:"VAPID keys not configured on server."} without keys; no
//     outbound call is made
//   - provider status passthrough {error:"push_failed", status, body} when
//     the push service rejects, including 404/410 which also delete the
//     subscription from the store
//   - 500 {error:"native_push_failed", detail} on internal failure
func (c *Controller) HandlePush(ctx echo.Context) error {
	var req pushRequest
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

	result, err := c.Dispatcher.Send(ctx.Request().Context(), req.Subscription, req.Payload)
	if err != nil {
		switch {
		case errors.HasCategory(err, errors.CategoryConfiguration):
			c.apiLogger.Error("push rejected, VAPID keys unusable", "error", err)
			return ctx.JSON(http.StatusInternalServerError, map[string]any{
				"error": "VAPID keys not configured on server.",
			})
		case errors.HasCategory(err, errors.CategoryValidation):
			return ctx.JSON(http.StatusBadRequest, map[string]any{
				"error": "Invalid subscription endpoint",
			})
		case errors.HasCategory(err, errors.CategoryLimit):
			return ctx.JSON(http.StatusTooManyRequests, map[string]any{
				"error":  "rate_limited",
				"detail": err.Error(),
			})
		default:
			c.apiLogger.Error("push failed before reaching the push service", "error", err)
			return ctx.JSON(http.StatusInternalServerError, map[string]any{
				"error":  "native_push_failed",
				"detail": err.Error(),
			})
		}
	}

	if result.Delivered() {
		ctx.Response().Header().Set(messageIDHeader, result.MessageID)
		return ctx.JSON(http.StatusOK, map[string]any{"ok": true})
	}

	// The push service refused; its status code is passed through so the
	// caller can distinguish gone subscriptions from throttling.
	return ctx.JSON(result.StatusCode, map[string]any{
		"error":  "push_failed",
		"status": result.StatusCode,
		"body":   result.Body,
	})
}
