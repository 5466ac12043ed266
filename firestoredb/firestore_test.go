package firestoredb

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luqmanAA/go-firebase-stripe/models"
	"github.com/luqmanAA/go-firebase-stripe/store"
)

// These tests run against the Firestore emulator; set FIRESTORE_EMULATOR_HOST.
func setupStore(t *testing.T) (*Store, *firestore.Client) {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "demo-"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return New(client, time.Hour), client
}

func TestStore_SubscriptionRoundTrip(t *testing.T) {
	s, client := setupStore(t)
	ctx := context.Background()

	rec, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = client.Collection(UsersCollection).Doc("u1").Set(ctx, map[string]any{
		"display_name": "Ada",
		"subscription": map[string]any{"id": "sub_old", "status": "canceled", "legacy": true},
	})
	require.NoError(t, err)

	want := models.SubscriptionRecord{
		ID:                 "sub_1",
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: 1000,
		CurrentPeriodEnd:   2000,
		Plan:               "pro",
	}
	require.NoError(t, s.Upsert(ctx, "u1", want))

	rec, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, want, *rec)

	snap, err := client.Collection(UsersCollection).Doc("u1").Get(ctx)
	require.NoError(t, err)
	data := snap.Data()
	assert.Equal(t, "Ada", data["display_name"])
	assert.NotContains(t, data["subscription"], "legacy")
}

func TestStore_Bindings(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	_, err := s.Owner(ctx, "cs_missing")
	assert.ErrorIs(t, err, store.ErrBindingNotFound)

	require.NoError(t, s.Bind(ctx, "cs_1", "u1"))
	owner, err := s.Owner(ctx, "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Owner(ctx, "cs_1")
	assert.ErrorIs(t, err, store.ErrBindingNotFound)

	require.NoError(t, s.Ping(ctx))
}
