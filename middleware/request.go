package middleware

import (
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luqmanAA/go-firebase-stripe/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
	maxIDLength     = 128
)

var validRequestID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// RequestLogger assigns a request id, echoes it in X-Request-ID and writes
// one access log line per request.
func RequestLogger(c *gin.Context) {
	start := time.Now()

	requestID := c.GetHeader(RequestIDHeader)
	if len(requestID) == 0 || len(requestID) > maxIDLength || !validRequestID.MatchString(requestID) {
		requestID = uuid.New().String()
	}
	c.Set(RequestIDKey, requestID)
	c.Writer.Header().Set(RequestIDHeader, requestID)

	c.Next()

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("errors", c.Errors.String()))
	}
	logger.Get().Info("request", fields...)
}
