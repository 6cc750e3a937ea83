package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix  = "cache:"
	statsCacheScope = "stats"
)

// StatsCache keeps read-heavy aggregates in Redis for a short TTL. A nil client disables it.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewStatsCache(client *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *StatsCache {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &StatsCache{client: client, ttl: ttl, log: log}
}

// CacheKey generates a cache key for a specific resource
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s%s:%s", CacheKeyPrefix, resource, identifier)
}

func (c *StatsCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get decodes a cached value into dest. Misses and decode errors both report false.
func (c *StatsCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if !c.enabled() {
		return false
	}
	val, err := c.client.Get(ctx, CacheKey(statsCacheScope, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		c.log.Warnw("cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *StatsCache) Set(ctx context.Context, key string, value interface{}) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warnw("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, CacheKey(statsCacheScope, key), data, c.ttl).Err(); err != nil {
		c.log.Warnw("cache write failed", "key", key, "error", err)
	}
}

// InvalidateStats removes every cached stats entry.
func (c *StatsCache) InvalidateStats(ctx context.Context) {
	if !c.enabled() {
		return
	}
	iter := c.client.Scan(ctx, 0, CacheKey(statsCacheScope, "*"), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warnw("cache scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warnw("cache invalidation failed", "error", err)
	}
}

// cached returns the value under key, computing and storing it on a miss.
func cached[T any](ctx context.Context, c *StatsCache, key string, compute func(context.Context) (T, error)) (T, error) {
	var out T
	if c.Get(ctx, key, &out) {
		return out, nil
	}
	out, err := compute(ctx)
	if err != nil {
		return out, err
	}
	c.Set(ctx, key, out)
	return out, nil
}
