package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luqmanAA/go-firebase-stripe/auth"
	"github.com/luqmanAA/go-firebase-stripe/logger"
	"github.com/luqmanAA/go-firebase-stripe/models"
)

const UserKey = "user"

// AuthMiddleware verifies the bearer token in the Authorization header and
// stores the principal under UserKey.
func AuthMiddleware(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authorization header missing"})
			return
		}

		token := auth.BearerToken(header)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Get().Warn("rejected bearer token",
				zap.String("path", c.FullPath()),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
			return
		}

		c.Set(UserKey, principal)
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (*models.Principal, bool) {
	user, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	principal, ok := user.(*models.Principal)
	return principal, ok && principal != nil
}
