package payments

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// Event is a verified webhook event. Subscription is set only for
// customer.subscription.* events.
type Event struct {
	ID           string
	Type         string
	Subscription *Subscription
}

// IsSubscriptionChange reports whether the event carries a subscription
// whose state should be persisted.
func (e *Event) IsSubscriptionChange() bool {
	switch stripe.EventType(e.Type) {
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted,
		stripe.EventTypeCustomerSubscriptionPaused,
		stripe.EventTypeCustomerSubscriptionResumed:
		return e.Subscription != nil
	default:
		return false
	}
}

// ParseEvent verifies the Stripe-Signature header against secret and decodes
// the event. Dashboard endpoints may pin a different API version than the
// library, so version mismatches are tolerated.
func ParseEvent(payload []byte, signature, secret string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, fmt.Errorf("decoding event %s: %w", event.ID, err)
	}
	if obj.Object != "subscription" {
		return out, nil
	}

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("decoding subscription in event %s: %w", event.ID, err)
	}
	out.Subscription = subscriptionFromStripe(&sub)
	return out, nil
}
