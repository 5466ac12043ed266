package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/subscription"

	"github.com/luqmanAA/go-firebase-stripe/models"
)

// StripeGateway implements Gateway with per-instance Stripe clients, so no
// package-level API key is set.
type StripeGateway struct {
	sessions      *session.Client
	subscriptions *subscription.Client
}

// NewStripeGateway builds a gateway for secretKey. A nil backend selects the
// default Stripe API backend.
func NewStripeGateway(secretKey string, backend stripe.Backend) *StripeGateway {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeGateway{
		sessions:      &session.Client{B: backend, Key: secretKey},
		subscriptions: &subscription.Client{B: backend, Key: secretKey},
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.PrincipalID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{PrincipalMetadataKey: req.PrincipalID},
		},
	}
	params.AddMetadata(PrincipalMetadataKey, req.PrincipalID)
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}
	return checkoutSessionFromStripe(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieving checkout session %s: %w", id, err)
	}
	return checkoutSessionFromStripe(s), nil
}

func (g *StripeGateway) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := g.subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieving subscription %s: %w", id, err)
	}
	return subscriptionFromStripe(sub), nil
}

func checkoutSessionFromStripe(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:       s.ID,
		URL:      s.URL,
		Metadata: s.Metadata,
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	return out
}

// subscriptionFromStripe reads the period bounds and plan from the first
// subscription item; the price nickname is preferred over the price id.
func subscriptionFromStripe(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:       sub.ID,
		Status:   models.SubscriptionStatus(sub.Status),
		Metadata: sub.Metadata,
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return out
	}

	item := sub.Items.Data[0]
	out.CurrentPeriodStart = item.CurrentPeriodStart
	out.CurrentPeriodEnd = item.CurrentPeriodEnd
	if item.Price != nil {
		out.Plan = item.Price.Nickname
		if out.Plan == "" {
			out.Plan = item.Price.ID
		}
	}
	return out
}
