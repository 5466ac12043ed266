package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luqmanAA/go-firebase-stripe/store"
)

const keyPrefix = "checkout:"

// Bindings keeps checkout bindings as keys that expire with the session.
type Bindings struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// Connect parses url (redis://...) and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	return client, nil
}

func NewBindings(client redis.UniversalClient, ttl time.Duration) *Bindings {
	return &Bindings{client: client, ttl: ttl}
}

// Bind refuses to overwrite an existing binding for the same session.
func (b *Bindings) Bind(ctx context.Context, sessionID, principalID string) error {
	ok, err := b.client.SetNX(ctx, keyPrefix+sessionID, principalID, b.ttl).Result()
	if err != nil {
		return fmt.Errorf("error binding checkout session %s: %w", sessionID, err)
	}
	if !ok {
		return fmt.Errorf("checkout session %s is already bound", sessionID)
	}
	return nil
}

func (b *Bindings) Owner(ctx context.Context, sessionID string) (string, error) {
	owner, err := b.client.Get(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", store.ErrBindingNotFound
		}
		return "", fmt.Errorf("error fetching checkout session %s: %w", sessionID, err)
	}
	return owner, nil
}

func (b *Bindings) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
