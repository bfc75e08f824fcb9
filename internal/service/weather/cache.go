package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// NewRedisClient parses url and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// CachedLookup memoizes successful lookups in Redis. Cache failures never fail a lookup.
type CachedLookup struct {
	next   Lookup
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCachedLookup wraps next with a Redis cache.
func NewCachedLookup(next Lookup, client *redis.Client, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		next:   next,
		client: client,
		prefix: "weather",
		ttl:    ttl,
	}
}

// key keeps the city exactly as given, since the cached line echoes it.
func (c *CachedLookup) key(city string) string {
	return c.prefix + ":" + city
}

// Fetch serves from cache when possible, otherwise delegates and stores the result.
func (c *CachedLookup) Fetch(ctx context.Context, city string) (string, error) {
	if c.client == nil {
		return c.next.Fetch(ctx, city)
	}

	key := c.key(city)
	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		log.Debug().Str("component", "weather").Str("city", city).Msg("cache hit")
		return cached, nil
	case !errors.Is(err, redis.Nil):
		log.Warn().Str("component", "weather").Err(err).Msg("cache read failed")
	}

	out, err := c.next.Fetch(ctx, city)
	if err != nil || out == CouldNotFetch {
		return out, err
	}

	if err := c.client.Set(ctx, key, out, c.ttl).Err(); err != nil {
		log.Warn().Str("component", "weather").Err(err).Msg("cache write failed")
	}
	return out, nil
}
