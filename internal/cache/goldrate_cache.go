package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chandanbounteous/goldscanner/internal/config"
)

const (
	goldRateKeyPrefix     = "goldrate:"
	goldRateScanBatchSize = 100
	dateLayout            = "2006-01-02"
)

// GoldRateEntry is the cached value for one day.
type GoldRateEntry struct {
	Rate24kPerTola float64 `json:"rate_24k_per_tola"`
	UpdatedAt      string  `json:"updated_at"`
}

// GoldRateCache stores daily gold rates keyed by calendar day.
type GoldRateCache interface {
	Get(ctx context.Context, day time.Time) (GoldRateEntry, bool, error)
	Set(ctx context.Context, day time.Time, entry GoldRateEntry) error
	Invalidate(ctx context.Context, day time.Time) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

type redisGoldRateCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopGoldRateCache struct{}

// NewGoldRateCache returns a Redis-backed cache, or a no-op one when the
// cache is disabled.
func NewGoldRateCache(cfg config.CacheConfig) (GoldRateCache, error) {
	if !cfg.Enabled {
		return &noopGoldRateCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisGoldRateCache(client, ttl), nil
}

// NewRedisGoldRateCache wraps an existing client. A non-positive ttl uses
// the default.
func NewRedisGoldRateCache(client *redis.Client, ttl time.Duration) GoldRateCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisGoldRateCache{client: client, ttl: ttl}
}

// NewNoopGoldRateCache returns a cache that stores nothing.
func NewNoopGoldRateCache() GoldRateCache {
	return &noopGoldRateCache{}
}

func (c *redisGoldRateCache) Get(ctx context.Context, day time.Time) (GoldRateEntry, bool, error) {
	payload, err := c.client.Get(ctx, goldRateKey(day)).Bytes()
	if err == redis.Nil {
		return GoldRateEntry{}, false, nil
	}
	if err != nil {
		return GoldRateEntry{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entry GoldRateEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return GoldRateEntry{}, false, fmt.Errorf("decode gold rate cache: %w", err)
	}
	return entry, true, nil
}

func (c *redisGoldRateCache) Set(ctx context.Context, day time.Time, entry GoldRateEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode gold rate cache: %w", err)
	}

	if err := c.client.Set(ctx, goldRateKey(day), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisGoldRateCache) Invalidate(ctx context.Context, day time.Time) error {
	return c.client.Del(ctx, goldRateKey(day)).Err()
}

func (c *redisGoldRateCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, goldRateKeyPrefix, goldRateScanBatchSize)
}

func (c *redisGoldRateCache) Close() error {
	return c.client.Close()
}

func (n *noopGoldRateCache) Get(ctx context.Context, day time.Time) (GoldRateEntry, bool, error) {
	return GoldRateEntry{}, false, nil
}

func (n *noopGoldRateCache) Set(ctx context.Context, day time.Time, entry GoldRateEntry) error {
	return nil
}

func (n *noopGoldRateCache) Invalidate(ctx context.Context, day time.Time) error {
	return nil
}

func (n *noopGoldRateCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (n *noopGoldRateCache) Close() error {
	return nil
}

func goldRateKey(day time.Time) string {
	return goldRateKeyPrefix + day.Format(dateLayout)
}
