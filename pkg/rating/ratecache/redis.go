package ratecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tournevent/shiprate/pkg/carrier"
)

// keyPrefix namespaces cache entries so Clear does not touch unrelated keys.
const keyPrefix = "shiprate:"

// Redis is a Cache backed by a Redis server, for sharing rate lookups
// across service instances. TTL expiry is handled server-side.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// RedisConfig holds configuration for the Redis cache backend.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis creates a Redis-backed cache and verifies connectivity.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{rdb: rdb, ttl: cfg.TTL}, nil
}

// NewRedisWithClient wraps an existing Redis client. Tests use this with
// miniredis.
func NewRedisWithClient(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// GetOrFetch implements Cache.
func (c *Redis) GetOrFetch(ctx context.Context, key Key, fetch FetchFunc) ([]carrier.RateQuote, error) {
	redisKey := keyPrefix + key.String()

	raw, err := c.rdb.Get(ctx, redisKey).Result()
	if err == nil {
		var quotes []carrier.RateQuote
		if err := json.Unmarshal([]byte(raw), &quotes); err == nil {
			return quotes, nil
		}
		// Corrupt entry: drop it and fall through to a fresh fetch.
		c.rdb.Del(ctx, redisKey)
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("rate cache read: %w", err)
	}

	quotes, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(quotes)
	if err != nil {
		return nil, fmt.Errorf("rate cache encode: %w", err)
	}

	if err := c.rdb.Set(ctx, redisKey, payload, c.ttl).Err(); err != nil {
		return nil, fmt.Errorf("rate cache write: %w", err)
	}

	return quotes, nil
}

// Clear implements Cache. Only keys under the cache's own prefix are removed.
func (c *Redis) Clear(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("rate cache clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("rate cache clear: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *Redis) Close() error {
	return c.rdb.Close()
}

var _ Cache = (*Redis)(nil)
