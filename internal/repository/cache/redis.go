// Package cache provides the TTL key-value caches behind query memoization.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/promptdex/internal/db"
)

// kvStore is the consumer interface for the Redis store (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Redis is a cache over a Redis or Valkey store.
type Redis struct {
	store kvStore
}

// NewRedis creates a Redis cache.
func NewRedis(s kvStore) *Redis {
	return &Redis{store: s}
}

// Get returns the value and whether it was present.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores value with ttl.
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.store.SetWithTTL(ctx, key, value, ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes key, or every key matching a glob pattern containing '*'.
func (c *Redis) Invalidate(ctx context.Context, pattern string) error {
	if !strings.Contains(pattern, "*") {
		if err := c.store.Del(ctx, pattern); err != nil {
			return fmt.Errorf("cache invalidate %s: %w", pattern, err)
		}
		return nil
	}

	keys, err := c.store.Scan(ctx, pattern)
	if err != nil {
		return fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", pattern, err)
	}
	return nil
}
