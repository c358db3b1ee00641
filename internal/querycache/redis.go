package querycache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/storefront/pkg/logger"
)

const redisKeyPrefix = "cache:"

// Redis caches responses in Redis so several CLI processes share them
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps a Redis client
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	cached, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil || len(cached) == 0 {
		logger.Logger.Debug().
			Str("cache_key", key).
			Msg("Cache miss")
		return nil, false
	}

	logger.Logger.Debug().
		Str("cache_key", key).
		Msg("Cache hit")
	return cached, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, r.ttl).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("cache_key", key).
			Msg("Failed to cache response")
		return
	}

	logger.Logger.Debug().
		Str("cache_key", key).
		Dur("ttl", r.ttl).
		Int("size", len(value)).
		Msg("Response cached")
}

// InvalidatePrefix deletes every key under prefix
func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) error {
	pattern := redisKeyPrefix + prefix + "*"

	// Find all keys matching pattern
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}

		logger.Logger.Debug().
			Int("count", len(keys)).
			Str("pattern", pattern).
			Msg("Cache invalidated")
	}

	return nil
}
