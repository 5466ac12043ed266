package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/luqmanAA/go-firebase-stripe/models"
	"github.com/luqmanAA/go-firebase-stripe/store"
)

// CheckoutBindings stores session bindings in checkout_sessions, expired by
// a TTL index on expires_at.
type CheckoutBindings struct {
	sessions *mongo.Collection
	ttl      time.Duration
	now      func() time.Time
}

func NewCheckoutBindings(db *mongo.Database, ttl time.Duration) *CheckoutBindings {
	return &CheckoutBindings{
		sessions: db.Collection(CheckoutSessionsCollection),
		ttl:      ttl,
		now:      time.Now,
	}
}

// EnsureIndexes creates the TTL index. It is safe to call on every start.
func (b *CheckoutBindings) EnsureIndexes(ctx context.Context) error {
	_, err := b.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("error creating checkout session TTL index: %w", err)
	}
	return nil
}

func (b *CheckoutBindings) Bind(ctx context.Context, sessionID, principalID string) error {
	now := b.now().UTC()
	binding := models.CheckoutBinding{
		SessionID:   sessionID,
		PrincipalID: principalID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(b.ttl),
	}
	if _, err := b.sessions.InsertOne(ctx, binding); err != nil {
		return fmt.Errorf("error binding checkout session %s: %w", sessionID, err)
	}
	return nil
}

func (b *CheckoutBindings) Owner(ctx context.Context, sessionID string) (string, error) {
	var binding models.CheckoutBinding
	err := b.sessions.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&binding)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", store.ErrBindingNotFound
		}
		return "", fmt.Errorf("error fetching checkout session %s: %w", sessionID, err)
	}
	// The TTL monitor runs about once a minute, so expiry is checked here too.
	if binding.Expired(b.now()) {
		return "", store.ErrBindingNotFound
	}
	return binding.PrincipalID, nil
}
