// Package ratelimit implements fixed-window request counting in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Limiter decides whether another request under key fits the window
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, count int, err error)
}

// RedisLimiter counts requests per window with INCR + EXPIRE
type RedisLimiter struct {
	redis *redis.Client
	now   func() time.Time
}

// NewRedisLimiter connects to Redis and verifies the connection
func NewRedisLimiter(ctx context.Context, redisURL string) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisLimiter{redis: client, now: time.Now}, nil
}

// Allow increments the counter of the current window
func (rl *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	seconds := int64(window.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	windowKey := fmt.Sprintf("taskflow:ratelimit:%s:%d", key, rl.now().Unix()/seconds)

	pipe := rl.redis.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := int(incr.Val())
	return count <= limit, count, nil
}

// Close closes the Redis connection
func (rl *RedisLimiter) Close() error {
	return rl.redis.Close()
}
