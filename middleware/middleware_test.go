package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/luqmanAA/go-firebase-stripe/auth"
	"github.com/luqmanAA/go-firebase-stripe/logger"
	"github.com/luqmanAA/go-firebase-stripe/middleware"
	"github.com/luqmanAA/go-firebase-stripe/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticVerifier map[string]*models.Principal

func (v staticVerifier) Verify(_ context.Context, credential string) (*models.Principal, error) {
	if p, ok := v[credential]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: unknown token", auth.ErrInvalidToken)
}

func TestAuthMiddleware(t *testing.T) {
	verifier := staticVerifier{"good": {ID: "u1", Email: "u1@example.com"}}

	r := gin.New()
	r.GET("/me", middleware.AuthMiddleware(verifier), func(c *gin.Context) {
		p, ok := middleware.CurrentPrincipal(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, p)
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, `{"detail":"Authorization header missing"}`},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, `{"detail":"Invalid or expired token"}`},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, `{"detail":"Invalid or expired token"}`},
		{"valid token", "Bearer good", http.StatusOK, `{"id":"u1","email":"u1@example.com"}`},
		{"lowercase scheme", "bearer good", http.StatusOK, `{"id":"u1","email":"u1@example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestCurrentPrincipal_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := middleware.CurrentPrincipal(c)
	assert.False(t, ok)
}

func TestCorsMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CorsMiddleware([]string{"https://app.example.com"}))
	r.GET("/me/subscription", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/webhook/stripe", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me/subscription", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me/subscription", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("webhook", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/me/subscription", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestCorsMiddleware_Wildcard(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CorsMiddleware([]string{"*"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anything.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestMicroserviceAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/metrics", middleware.MicroserviceAuthMiddleware("s3cret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-API-Key", "s3cret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMicroserviceAuthMiddleware_NoKey(t *testing.T) {
	r := gin.New()
	r.GET("/metrics", middleware.MicroserviceAuthMiddleware(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStripeWebhookVerifier(t *testing.T) {
	const secret = "whsec_test"
	payload := `{"id":"evt_1","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`

	r := gin.New()
	r.POST("/webhook/stripe", middleware.StripeWebhookVerifier(secret), func(c *gin.Context) {
		event, ok := middleware.StripeEvent(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"type": event.Type})
	})

	t.Run("valid signature", func(t *testing.T) {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload: []byte(payload),
			Secret:  secret,
		})
		req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader(payload))
		req.Header.Set("Stripe-Signature", signed.Header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"type":"invoice.paid"}`, w.Body.String())
	})

	t.Run("bad signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader(payload))
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRequestLogger(t *testing.T) {
	prev := logger.Get()
	t.Cleanup(func() { logger.Set(prev) })

	core, logs := observer.New(zap.InfoLevel)
	logger.Set(zap.New(core))

	r := gin.New()
	r.Use(middleware.RequestLogger)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, "abc-123", entry.ContextMap()["request_id"])
	assert.EqualValues(t, http.StatusOK, entry.ContextMap()["status"])
}

func TestRequestLogger_ReplacesInvalidID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestLogger)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "bad id\n")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	id := w.Header().Get(middleware.RequestIDHeader)
	assert.NotEqual(t, "bad id\n", id)
	assert.Len(t, id, 36)
}
