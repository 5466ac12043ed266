package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/luqmanAA/go-firebase-stripe/auth"
	"github.com/luqmanAA/go-firebase-stripe/models"
	"github.com/luqmanAA/go-firebase-stripe/payments"
	"github.com/luqmanAA/go-firebase-stripe/store"
)

// SubscriptionService is the part of services.SubscriptionService the HTTP
// surface calls.
type SubscriptionService interface {
	CreateCheckout(ctx context.Context, principal *models.Principal, requestBaseURL string) (string, error)
	SyncAfterCheckout(ctx context.Context, sessionID string) error
	GetSubscription(ctx context.Context, principalID string) (*models.SubscriptionRecord, error)
	ApplySubscriptionEvent(ctx context.Context, event *payments.Event) (bool, error)
}

type Handler struct {
	subscriptions SubscriptionService
	verifier      auth.Verifier
	page          gin.H
	pingers       map[string]store.Pinger
	proxies       []netip.Prefix
}

// New builds the handlers. page is handed to every HTML template; pingers
// are checked by Health.
func New(subscriptions SubscriptionService, verifier auth.Verifier, page map[string]any, pingers map[string]store.Pinger) *Handler {
	return &Handler{
		subscriptions: subscriptions,
		verifier:      verifier,
		page:          gin.H(page),
		pingers:       pingers,
	}
}

// SetTrustedProxies lists the addresses or CIDR ranges whose
// X-Forwarded-Proto header is honoured. It mirrors the engine's trusted
// proxies.
func (h *Handler) SetTrustedProxies(proxies []string) error {
	prefixes := make([]netip.Prefix, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			prefix, err := netip.ParsePrefix(p)
			if err != nil {
				return fmt.Errorf("invalid trusted proxy %q: %w", p, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(p)
		if err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	h.proxies = prefixes
	return nil
}

func (h *Handler) fromTrustedProxy(c *gin.Context) bool {
	addr, err := netip.ParseAddr(c.RemoteIP())
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range h.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// requestBaseURL rebuilds scheme://host for redirect URLs when BASE_URL is
// not configured. The Host header is client supplied, so production
// deployments set BASE_URL.
func (h *Handler) requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	} else if h.fromTrustedProxy(c) && c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// errorResponse returns the status and client message for err. Upstream
// details never reach the client.
func errorResponse(err error) (int, string) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return models.Upstream(err).HTTPStatus(), models.GenericFailureMessage
	}
	return appErr.HTTPStatus(), appErr.Message
}
