package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luqmanAA/go-firebase-stripe/logger"
	"github.com/luqmanAA/go-firebase-stripe/metrics"
	"github.com/luqmanAA/go-firebase-stripe/models"
	"github.com/luqmanAA/go-firebase-stripe/payments"
	"github.com/luqmanAA/go-firebase-stripe/store"
)

const defaultUpstreamTimeout = 10 * time.Second

type Options struct {
	// PriceID is the single price every checkout subscribes to.
	PriceID string
	// BaseURL overrides the request-derived base for redirect URLs.
	BaseURL string
	// Timeout bounds each call to the payment provider or the store.
	Timeout time.Duration
}

// SubscriptionService runs checkout creation and post-checkout sync.
type SubscriptionService struct {
	gateway  payments.Gateway
	store    store.SubscriptionStore
	bindings store.CheckoutBindings
	metrics  *metrics.Metrics
	opts     Options
}

func NewSubscriptionService(
	gateway payments.Gateway,
	subscriptions store.SubscriptionStore,
	bindings store.CheckoutBindings,
	m *metrics.Metrics,
	opts Options,
) *SubscriptionService {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultUpstreamTimeout
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &SubscriptionService{
		gateway:  gateway,
		store:    subscriptions,
		bindings: bindings,
		metrics:  m,
		opts:     opts,
	}
}

// CreateCheckout opens a subscription checkout for principal and returns the
// provider redirect URL. A nil principal is rejected before any external call.
func (s *SubscriptionService) CreateCheckout(ctx context.Context, principal *models.Principal, requestBaseURL string) (string, error) {
	if principal == nil || principal.ID == "" {
		s.metrics.Checkout(models.KindAuthentication.String())
		return "", models.Unauthenticated("Invalid token", nil)
	}

	base := s.opts.BaseURL
	if base == "" {
		base = strings.TrimRight(requestBaseURL, "/")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	session, err := s.gateway.CreateCheckoutSession(callCtx, payments.CheckoutRequest{
		PriceID:       s.opts.PriceID,
		PrincipalID:   principal.ID,
		CustomerEmail: principal.Email,
		SuccessURL:    base + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     base + "/cancel",
	})
	if err != nil {
		logger.Get().Error("error creating checkout session",
			zap.String("user_id", principal.ID),
			zap.Error(err))
		s.metrics.Checkout(models.KindUpstream.String())
		return "", models.Upstream(err)
	}

	bindCtx, cancelBind := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancelBind()

	if err := s.bindings.Bind(bindCtx, session.ID, principal.ID); err != nil {
		logger.Get().Error("error binding checkout session",
			zap.String("user_id", principal.ID),
			zap.String("session_id", session.ID),
			zap.Error(err))
		s.metrics.Checkout(models.KindUpstream.String())
		return "", models.Upstream(err)
	}

	logger.Get().Info("checkout session created",
		zap.String("user_id", principal.ID),
		zap.String("session_id", session.ID))
	s.metrics.Checkout(metrics.OutcomeOK)
	return session.URL, nil
}

// SyncAfterCheckout copies the subscription behind a completed checkout
// session into the store. The session must have been created by this service
// for the principal named in its metadata. Running it twice for the same
// session writes the same record.
func (s *SubscriptionService) SyncAfterCheckout(ctx context.Context, sessionID string) error {
	err := s.syncAfterCheckout(ctx, sessionID)
	if err != nil {
		s.metrics.Sync(models.KindOf(err).String())
		return err
	}
	s.metrics.Sync(metrics.OutcomeOK)
	return nil
}

func (s *SubscriptionService) syncAfterCheckout(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return models.BadRequest("Missing session ID")
	}

	session, err := s.getCheckoutSession(ctx, sessionID)
	if err != nil {
		logger.Get().Error("error retrieving checkout session",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return models.Upstream(err)
	}
	if session.SubscriptionID == "" {
		logger.Get().Warn("checkout session has no subscription",
			zap.String("session_id", sessionID))
		return models.BadRequest("Checkout not completed")
	}

	principalID := session.PrincipalID()
	if err := s.checkBinding(ctx, sessionID, principalID); err != nil {
		return err
	}

	subCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	sub, err := s.gateway.GetSubscription(subCtx, session.SubscriptionID)
	if err != nil {
		logger.Get().Error("error retrieving subscription",
			zap.String("session_id", sessionID),
			zap.String("subscription_id", session.SubscriptionID),
			zap.Error(err))
		return models.Upstream(err)
	}

	return s.persist(ctx, principalID, sub)
}

func (s *SubscriptionService) getCheckoutSession(ctx context.Context, sessionID string) (*payments.CheckoutSession, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.gateway.GetCheckoutSession(callCtx, sessionID)
}

// checkBinding compares the metadata principal with the one recorded when the
// session was created. Metadata alone is not trusted.
func (s *SubscriptionService) checkBinding(ctx context.Context, sessionID, principalID string) error {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	owner, err := s.bindings.Owner(callCtx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrBindingNotFound) {
			logger.Get().Warn("checkout session not bound to a user",
				zap.String("session_id", sessionID))
			return models.Unauthenticated("Unknown checkout session", err)
		}
		logger.Get().Error("error reading checkout binding",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return models.Upstream(err)
	}

	if principalID == "" || owner != principalID {
		logger.Get().Warn("checkout session owner mismatch",
			zap.String("session_id", sessionID),
			zap.String("bound_user_id", owner),
			zap.String("metadata_user_id", principalID))
		return models.Unauthenticated("Unknown checkout session", nil)
	}
	return nil
}

func (s *SubscriptionService) persist(ctx context.Context, principalID string, sub *payments.Subscription) error {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	record := sub.Record()
	if err := s.store.Upsert(callCtx, principalID, record); err != nil {
		logger.Get().Error("error storing subscription",
			zap.String("user_id", principalID),
			zap.String("subscription_id", sub.ID),
			zap.Error(err))
		return models.Upstream(err)
	}

	logger.Get().Info("subscription stored",
		zap.String("user_id", principalID),
		zap.String("subscription_id", record.ID),
		zap.String("status", string(record.Status)),
		zap.Bool("entitled", record.Status.Entitled()))
	return nil
}

// GetSubscription returns the stored record, or nil when the principal has
// never completed a checkout.
func (s *SubscriptionService) GetSubscription(ctx context.Context, principalID string) (*models.SubscriptionRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	record, err := s.store.Get(callCtx, principalID)
	if err != nil {
		logger.Get().Error("error retrieving subscription",
			zap.String("user_id", principalID),
			zap.Error(err))
		return nil, models.Upstream(err)
	}
	return record, nil
}

// ApplySubscriptionEvent refreshes the subscription named by a verified
// webhook event. Delivery order is not guaranteed, so the event only names the
// subscription; its current state and owner are fetched from the provider.
// Subscriptions without an owner in their metadata are skipped and reported
// as not applied.
func (s *SubscriptionService) ApplySubscriptionEvent(ctx context.Context, event *payments.Event) (bool, error) {
	if !event.IsSubscriptionChange() {
		s.metrics.WebhookEvent(event.Type, metrics.OutcomeIgnored)
		return false, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	sub, err := s.gateway.GetSubscription(callCtx, event.Subscription.ID)
	if err != nil {
		logger.Get().Error("error refreshing subscription from event",
			zap.String("event_id", event.ID),
			zap.String("subscription_id", event.Subscription.ID),
			zap.Error(err))
		s.metrics.WebhookEvent(event.Type, models.KindUpstream.String())
		return false, models.Upstream(err)
	}

	principalID := sub.PrincipalID()
	if principalID == "" {
		logger.Get().Warn("subscription event without owner",
			zap.String("event_id", event.ID),
			zap.String("subscription_id", sub.ID))
		s.metrics.WebhookEvent(event.Type, metrics.OutcomeIgnored)
		return false, nil
	}

	if err := s.persist(ctx, principalID, sub); err != nil {
		s.metrics.WebhookEvent(event.Type, models.KindOf(err).String())
		return false, err
	}
	s.metrics.WebhookEvent(event.Type, metrics.OutcomeOK)
	return true, nil
}
