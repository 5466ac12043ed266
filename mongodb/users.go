package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/luqmanAA/go-firebase-stripe/models"
)

// SubscriptionStore keeps subscriptions on users documents keyed by _id.
type SubscriptionStore struct {
	users *mongo.Collection
}

func NewSubscriptionStore(db *mongo.Database) *SubscriptionStore {
	return &SubscriptionStore{users: db.Collection(UsersCollection)}
}

func (s *SubscriptionStore) Get(ctx context.Context, principalID string) (*models.SubscriptionRecord, error) {
	opts := options.FindOne().SetProjection(bson.M{"subscription": 1})

	var doc models.UserDocument
	err := s.users.FindOne(ctx, bson.M{"_id": principalID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Not found, but not an error
		}
		return nil, fmt.Errorf("error fetching user %s: %w", principalID, err)
	}
	return doc.Subscription, nil
}

// Upsert sets the whole subscription field; other user fields are untouched.
func (s *SubscriptionStore) Upsert(ctx context.Context, principalID string, record models.SubscriptionRecord) error {
	_, err := s.users.UpdateOne(
		ctx,
		bson.M{"_id": principalID},
		bson.M{"$set": bson.M{"subscription": record}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("error upserting subscription for user %s: %w", principalID, err)
	}
	return nil
}
