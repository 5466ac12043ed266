package payments

import (
	"context"

	"github.com/luqmanAA/go-firebase-stripe/models"
)

// PrincipalMetadataKey is the metadata key that carries the principal id on
// checkout sessions and subscriptions.
const PrincipalMetadataKey = "firebase_uid"

// CheckoutRequest describes a single-price subscription checkout.
type CheckoutRequest struct {
	PriceID       string
	PrincipalID   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the part of a provider checkout session this service reads.
type CheckoutSession struct {
	ID             string
	URL            string
	SubscriptionID string
	Metadata       map[string]string
}

// PrincipalID returns the principal id embedded at creation time.
func (s *CheckoutSession) PrincipalID() string {
	return s.Metadata[PrincipalMetadataKey]
}

// Subscription is a provider subscription reduced to the stored fields.
type Subscription struct {
	ID                 string
	Status             models.SubscriptionStatus
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	Plan               string
	Metadata           map[string]string
}

func (s *Subscription) PrincipalID() string {
	return s.Metadata[PrincipalMetadataKey]
}

// Record converts the subscription into the persisted record.
func (s *Subscription) Record() models.SubscriptionRecord {
	return models.SubscriptionRecord{
		ID:                 s.ID,
		Status:             s.Status,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		Plan:               s.Plan,
	}
}

// Gateway is the payment provider as seen by the subscription service.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
}
