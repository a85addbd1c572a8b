// Package idempotency deduplicates mutation responses per (user, key).
//
// The guarantee is approximate: there is no lock around the
// check-execute-store window, so concurrent duplicate submissions of the
// same key may both run before either is cached. Retries after the first
// response, the common case, replay the cached payload.
package idempotency

import (
	"context"
	"time"

	"chat-service/internal/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idempotency:"

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
	}
}

// The key space is partitioned per user; one user's key can never resolve
// another user's entry.
func (c *Cache) key(userID, key string) string {
	return keyPrefix + userID + ":" + key
}

// Get returns the cached response payload for (userID, key). Store errors
// are logged and reported as a miss, never as a failure.
func (c *Cache) Get(ctx context.Context, userID, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, c.key(userID, key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn("idempotency lookup failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, false
	}
	return val, true
}

// Put stores the response payload for (userID, key). The first successful
// write wins; write errors are logged and swallowed so a cache outage
// never fails the caller's request.
func (c *Cache) Put(ctx context.Context, userID, key string, payload []byte) {
	err := c.client.SetNX(ctx, c.key(userID, key), payload, c.ttl).Err()
	if err != nil {
		logger.Warn("idempotency store failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
