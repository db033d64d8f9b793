package company

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache stores candidate lists as JSON in Redis with a TTL. Redis
// failures degrade to cache misses.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache. Keys are namespaced with prefix.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached list for key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]Company, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("company: redis cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var companies []Company
	if err := json.Unmarshal(data, &companies); err != nil {
		zap.L().Warn("company: redis cache decode failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return companies, true
}

// Set stores the list for key.
func (c *RedisCache) Set(ctx context.Context, key string, companies []Company) {
	data, err := json.Marshal(companies)
	if err != nil {
		zap.L().Warn("company: redis cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		zap.L().Warn("company: redis cache set failed", zap.String("key", key), zap.Error(err))
	}
}
