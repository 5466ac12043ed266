package store

import (
	"context"
	"errors"

	"github.com/luqmanAA/go-firebase-stripe/models"
)

var ErrBindingNotFound = errors.New("checkout binding not found")

// SubscriptionStore persists the subscription sub-object of user documents.
// There is no concurrency control: concurrent upserts to the same principal
// race and the last write wins.
type SubscriptionStore interface {
	// Get returns nil, nil when the user document or its subscription field
	// does not exist.
	Get(ctx context.Context, principalID string) (*models.SubscriptionRecord, error)

	// Upsert replaces the subscription sub-object and keeps every other
	// field of the user document.
	Upsert(ctx context.Context, principalID string, record models.SubscriptionRecord) error
}

// CheckoutBindings remembers which principal created a checkout session.
type CheckoutBindings interface {
	Bind(ctx context.Context, sessionID, principalID string) error

	// Owner returns ErrBindingNotFound for unknown or expired sessions.
	Owner(ctx context.Context, sessionID string) (string, error)
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
