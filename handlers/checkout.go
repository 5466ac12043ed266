package handlers

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luqmanAA/go-firebase-stripe/logger"
	"github.com/luqmanAA/go-firebase-stripe/models"
)

// CreateCheckoutSession verifies the id_token in the body and answers with
// the checkout redirect URL.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Get().Warn("invalid checkout request body", zap.Error(err))
	}

	var principal *models.Principal
	if req.IDToken != "" {
		p, err := h.verifier.Verify(c.Request.Context(), req.IDToken)
		if err != nil {
			logger.Get().Warn("token verification failed", zap.Error(err))
		} else {
			principal = p
		}
	}

	url, err := h.subscriptions.CreateCheckout(c.Request.Context(), principal, h.requestBaseURL(c))
	if err != nil {
		status, msg := errorResponse(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Success syncs the subscription behind the completed checkout and renders
// the success page.
func (h *Handler) Success(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte("<h1>Missing session ID!</h1>"))
		return
	}

	if err := h.subscriptions.SyncAfterCheckout(c.Request.Context(), sessionID); err != nil {
		status, msg := errorResponse(err)
		c.Data(status, "text/html; charset=utf-8", []byte("<h1>"+template.HTMLEscapeString(msg)+"</h1>"))
		return
	}

	c.HTML(http.StatusOK, "success.html", h.page)
}

func (h *Handler) Cancel(c *gin.Context) {
	c.HTML(http.StatusOK, "cancel.html", h.page)
}

func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", h.page)
}
