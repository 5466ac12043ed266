package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luqmanAA/go-firebase-stripe/logger"
	"github.com/luqmanAA/go-firebase-stripe/middleware"
)

// MeSubscription returns the caller's stored subscription, or null when they
// have never completed a checkout.
func (h *Handler) MeSubscription(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		logger.Get().Error("user not authenticated")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header missing"})
		return
	}

	record, err := h.subscriptions.GetSubscription(c.Request.Context(), principal.ID)
	if err != nil {
		status, msg := errorResponse(err)
		c.JSON(status, gin.H{"detail": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": record})
}

// StripeWebhook persists subscription changes from verified Stripe events.
func (h *Handler) StripeWebhook(c *gin.Context) {
	event, ok := middleware.StripeEvent(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	applied, err := h.subscriptions.ApplySubscriptionEvent(c.Request.Context(), event)
	if err != nil {
		status, msg := errorResponse(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	logger.Get().Info("webhook processed",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.Bool("applied", applied))
	c.JSON(http.StatusOK, gin.H{"received": true})
}
