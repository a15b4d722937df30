// Package cache provides Redis-backed caching for nowcast detail lookups.
//
// Nowcast details are immutable for a given code, so the engine caches them
// for a short TTL to avoid refetching the same detail across consecutive poll
// cycles. The cache is optional; the engine degrades to direct fetches when
// Redis is not configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bmkgalert:cache:"

// Cache is a Redis-backed cache.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a new Redis-backed cache and verifies connectivity.
func New(redisURL string, logger *slog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Cache{
		client: client,
		logger: logger.With("component", "cache"),
	}, nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get retrieves a cached value. Returns nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set stores a value with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, keyPrefix+key, data, ttl).Err()
}

// GetJSON retrieves and unmarshals a cached JSON value. The bool reports
// whether the key was present.
func (c *Cache) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals and stores a JSON value with the given TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, keyPrefix+key).Err()
}
