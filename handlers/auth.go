package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luqmanAA/go-firebase-stripe/logger"
)

type tokenRequest struct {
	IDToken string `json:"id_token"`
}

// VerifyToken exchanges an identity token for the principal it names.
func (h *Handler) VerifyToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IDToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Missing ID token"})
		return
	}

	principal, err := h.verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		logger.Get().Warn("token verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token"})
		return
	}

	c.JSON(http.StatusOK, principal)
}
