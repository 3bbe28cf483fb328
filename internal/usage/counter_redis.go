package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter is a fixed-window Counter shared across instances through Redis.
// Keys already carry the window bucket, so each key lives for one window.
type RedisCounter struct {
	Client *redis.Client
	Prefix string
}

// NewRedisCounter parses a redis:// URL and returns a counter using it.
func NewRedisCounter(redisURL string) (*RedisCounter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return &RedisCounter{Client: redis.NewClient(opts), Prefix: "cvopt"}, nil
}

// Increment runs INCR and EXPIRE in one MULTI block.
func (r *RedisCounter) Increment(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (CounterResult, error) {
	fullKey := key
	if r.Prefix != "" {
		fullKey = r.Prefix + ":" + key
	}

	var incr *redis.IntCmd
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.Expire(ctx, fullKey, window+time.Second)
		return nil
	})
	if err != nil {
		return CounterResult{}, fmt.Errorf("redis increment: %w", err)
	}
	count := int(incr.Val())
	return CounterResult{
		Count:   count,
		Allowed: count <= limit,
		ResetAt: windowEnd(now, window),
	}, nil
}

// Ping reports whether Redis is reachable.
func (r *RedisCounter) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

var _ Counter = (*RedisCounter)(nil)
