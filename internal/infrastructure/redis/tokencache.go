package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache shares short-lived provider access tokens between instances so
// each deployment does not hammer the provider's token endpoint.
type TokenCache struct {
	client *redis.Client
}

func NewTokenCache(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

// Get returns the cached token, or "" if the key is absent or expired.
func (c *TokenCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("token cache get: %w", err)
	}
	return val, nil
}

func (c *TokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, token, ttl).Err(); err != nil {
		return fmt.Errorf("token cache set: %w", err)
	}
	return nil
}
