package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/luqmanAA/go-firebase-stripe/models"
	"github.com/luqmanAA/go-firebase-stripe/store"
)

const (
	UsersCollection            = "users"
	CheckoutSessionsCollection = "checkout_sessions"
)

// Store keeps subscriptions on users/{uid} and bindings on
// checkout_sessions/{session id}.
type Store struct {
	client *firestore.Client
	ttl    time.Duration
	now    func() time.Time
}

func New(client *firestore.Client, bindingTTL time.Duration) *Store {
	return &Store{client: client, ttl: bindingTTL, now: time.Now}
}

func (s *Store) Get(ctx context.Context, principalID string) (*models.SubscriptionRecord, error) {
	snap, err := s.client.Collection(UsersCollection).Doc(principalID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching user %s: %w", principalID, err)
	}

	var doc models.UserDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("error decoding user %s: %w", principalID, err)
	}
	return doc.Subscription, nil
}

// Upsert merges only the subscription field path, which replaces the
// sub-object as a whole and leaves sibling fields alone.
func (s *Store) Upsert(ctx context.Context, principalID string, record models.SubscriptionRecord) error {
	_, err := s.client.Collection(UsersCollection).Doc(principalID).Set(ctx,
		map[string]any{"subscription": record},
		firestore.Merge([]string{"subscription"}),
	)
	if err != nil {
		return fmt.Errorf("error upserting subscription for user %s: %w", principalID, err)
	}
	return nil
}

func (s *Store) Bind(ctx context.Context, sessionID, principalID string) error {
	now := s.now().UTC()
	binding := models.CheckoutBinding{
		PrincipalID: principalID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if _, err := s.client.Collection(CheckoutSessionsCollection).Doc(sessionID).Create(ctx, binding); err != nil {
		return fmt.Errorf("error binding checkout session %s: %w", sessionID, err)
	}
	return nil
}

func (s *Store) Owner(ctx context.Context, sessionID string) (string, error) {
	snap, err := s.client.Collection(CheckoutSessionsCollection).Doc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", store.ErrBindingNotFound
		}
		return "", fmt.Errorf("error fetching checkout session %s: %w", sessionID, err)
	}

	var binding models.CheckoutBinding
	if err := snap.DataTo(&binding); err != nil {
		return "", fmt.Errorf("error decoding checkout session %s: %w", sessionID, err)
	}
	// Firestore TTL policies delete lazily; expires_at is authoritative.
	if binding.Expired(s.now()) {
		return "", store.ErrBindingNotFound
	}
	return binding.PrincipalID, nil
}

// Ping reads at most one document to confirm the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	iter := s.client.Collection(UsersCollection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}
