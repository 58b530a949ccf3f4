package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Veraticus/cohortlens/internal/common"
)

// cacheKeyPrefix namespaces every cached report.
const cacheKeyPrefix = "lens:report:"

// ReportCache stores encoded reports computed over the stored customers.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context) error
}

// ReportKey is the cache key for a preset evaluated on a given day.
func ReportKey(preset string, day time.Time) string {
	return cacheKeyPrefix + preset + ":" + day.Format("2006-01-02")
}

// NopCache never stores anything.
type NopCache struct{}

// Get always misses.
func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (NopCache) Set(context.Context, string, []byte) error { return nil }

// Invalidate does nothing.
func (NopCache) Invalidate(context.Context) error { return nil }

// RedisCache keeps reports in Redis with a fixed time to live.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server at url and verifies it responds,
// retrying the ping a few times while the server starts.
// Bare host:port addresses are accepted as well as redis:// URLs.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	if !strings.Contains(url, "://") {
		url = "redis://" + url
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)

	err = common.WithRetry(ctx, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pingCtx).Err()
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: time.Second})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisCacheFromClient(client, ttl), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached value for key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}
	return value, true, nil
}

// Set stores value under key until the TTL expires.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.SetEx(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Invalidate removes every cached report.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	slog.Debug("Invalidated cached reports", "count", len(keys))
	return nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
