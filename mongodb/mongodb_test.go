package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/luqmanAA/go-firebase-stripe/models"
	"github.com/luqmanAA/go-firebase-stripe/store"
)

// These tests need a reachable MongoDB; set MONGO_TEST_URI to run them.
func setupDatabase(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri, "subscriptions_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Database().Drop(context.Background())
		client.Close(context.Background())
	})
	return client
}

func TestSubscriptionStore_Integration(t *testing.T) {
	client := setupDatabase(t)
	ctx := context.Background()
	s := NewSubscriptionStore(client.Database())

	rec, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = client.Database().Collection(UsersCollection).InsertOne(ctx, bson.M{"_id": "u1", "display_name": "Ada"})
	require.NoError(t, err)

	rec, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	want := models.SubscriptionRecord{
		ID:                 "sub_1",
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: 1000,
		CurrentPeriodEnd:   2000,
		Plan:               "pro",
	}
	require.NoError(t, s.Upsert(ctx, "u1", want))
	require.NoError(t, s.Upsert(ctx, "u1", want))

	rec, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, want, *rec)

	var raw bson.M
	require.NoError(t, client.Database().Collection(UsersCollection).FindOne(ctx, bson.M{"_id": "u1"}).Decode(&raw))
	assert.Equal(t, "Ada", raw["display_name"])
}

func TestCheckoutBindings_Integration(t *testing.T) {
	client := setupDatabase(t)
	ctx := context.Background()
	b := NewCheckoutBindings(client.Database(), time.Hour)
	require.NoError(t, b.EnsureIndexes(ctx))

	_, err := b.Owner(ctx, "cs_missing")
	assert.ErrorIs(t, err, store.ErrBindingNotFound)

	require.NoError(t, b.Bind(ctx, "cs_1", "u1"))
	owner, err := b.Owner(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	b.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = b.Owner(ctx, "cs_1")
	assert.ErrorIs(t, err, store.ErrBindingNotFound)
}
