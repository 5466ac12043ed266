package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luqmanAA/go-firebase-stripe/middleware"
)

type RouteOptions struct {
	// WebhookSecret enables /webhook/stripe when set.
	WebhookSecret  string
	InternalAPIKey string
	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r gin.IRouter, opts RouteOptions) {
	r.GET("/", h.Home)
	r.POST("/verify-token/", h.VerifyToken)
	r.POST("/create-checkout-session", h.CreateCheckoutSession)
	r.GET("/success", h.Success)
	r.GET("/cancel", h.Cancel)
	r.GET("/me/subscription", middleware.AuthMiddleware(h.verifier), h.MeSubscription)
	r.GET("/health", h.Health)

	if opts.WebhookSecret != "" {
		r.POST("/webhook/stripe", middleware.StripeWebhookVerifier(opts.WebhookSecret), h.StripeWebhook)
	}
	if opts.Metrics != nil {
		r.GET("/metrics", middleware.MicroserviceAuthMiddleware(opts.InternalAPIKey), gin.WrapH(opts.Metrics))
	}
}
