package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luqmanAA/go-firebase-stripe/logger"
	"github.com/luqmanAA/go-firebase-stripe/payments"
)

const StripeEventKey = "stripe_event"

// maxWebhookBody matches the payload limit Stripe documents for webhooks.
const maxWebhookBody = 65536

// StripeWebhookVerifier checks the Stripe-Signature header against secret and
// stores the decoded *payments.Event under StripeEventKey.
func StripeWebhookVerifier(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			logger.Get().Error("failed to read webhook body", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
			return
		}

		event, err := payments.ParseEvent(b, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			logger.Get().Warn("rejected webhook", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}

		c.Set(StripeEventKey, event)
		c.Next()
	}
}

// StripeEvent returns the event stored by StripeWebhookVerifier.
func StripeEvent(c *gin.Context) (*payments.Event, bool) {
	v, exists := c.Get(StripeEventKey)
	if !exists {
		return nil, false
	}
	event, ok := v.(*payments.Event)
	return event, ok
}
