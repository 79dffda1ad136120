package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window counter per workspace shared by every
// API instance that talks to the same Redis
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

var _ Limiter = (*RedisRateLimiter)(nil)

// NewRedisRateLimiter allows limit requests per window for each workspace
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "kanakku:ratelimit:",
	}
}

// Allow increments the workspace's counter for the current window
func (r *RedisRateLimiter) Allow(ctx context.Context, workspaceID int32) (Decision, error) {
	key := fmt.Sprintf("%s%d", r.prefix, workspaceID)

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit pipeline: %w", err)
	}

	count := incr.Val()
	remainingTTL := ttl.Val()

	// A key without expiry (-1) or one that vanished (-2) starts a new window
	if remainingTTL < 0 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
		remainingTTL = r.window
	}

	d := Decision{Limit: r.limit}
	if count > int64(r.limit) {
		d.RetryAfter = remainingTTL
		return d, nil
	}
	d.Allowed = true
	d.Remaining = r.limit - int(count)
	return d, nil
}
