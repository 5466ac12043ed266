package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luqmanAA/go-firebase-stripe/logger"
)

const pingTimeout = 2 * time.Second

// Health pings every configured backend.
func (h *Handler) Health(c *gin.Context) {
	failed := gin.H{}
	for name, p := range h.pingers {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		err := p.Ping(ctx)
		cancel()
		if err != nil {
			logger.Get().Error("health check failed", zap.String("backend", name), zap.Error(err))
			failed[name] = "unavailable"
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
