package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is how long a cached catalog is served before the
// upstream source is asked again.
const DefaultCacheTTL = 10 * time.Minute

// RedisCache serves a catalog from redis and falls through to an upstream
// source on a miss, storing what it fetched. Cache errors never fail a
// fetch; they are logged and the upstream is used.
type RedisCache struct {
	client   *redis.Client
	upstream Source
	key      string
	ttl      time.Duration
	log      *slog.Logger
}

// NewRedisCache connects to redisURL and wraps upstream.
func NewRedisCache(redisURL string, upstream Source, ttl time.Duration, log *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisCacheWithClient(client, upstream, ttl, log), nil
}

// NewRedisCacheWithClient wraps upstream using an existing client.
func NewRedisCacheWithClient(client *redis.Client, upstream Source, ttl time.Duration, log *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &RedisCache{
		client:   client,
		upstream: upstream,
		key:      "catalog:current",
		ttl:      ttl,
		log:      log,
	}
}

func (c *RedisCache) Fetch(ctx context.Context) (*Catalog, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		cat, decErr := Decode(data, "redis:"+c.key)
		if decErr == nil {
			return cat, nil
		}
		c.log.Warn("cached catalog unreadable, refetching", "error", decErr)
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("catalog cache read failed", "error", err)
	}

	cat, err := c.upstream.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Store(ctx, cat); err != nil {
		c.log.Warn("catalog cache write failed", "error", err)
	}
	return cat, nil
}

// Store writes cat to the cache.
func (c *RedisCache) Store(ctx context.Context, cat *Catalog) error {
	data, err := Encode(cat)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache catalog: %w", err)
	}
	return nil
}

// Invalidate drops the cached catalog so the next Fetch goes upstream.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

// Ping checks if redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
