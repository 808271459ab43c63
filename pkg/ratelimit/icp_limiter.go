// Package ratelimit provides Redis-backed rate limiting for scoring triggers.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is the capability injected into handlers that need to throttle
// manual scoring triggers. A nil or degraded backend always allows.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// SlidingWindowLimiter implements sliding window rate limiting using Redis.
type SlidingWindowLimiter struct {
	redis  *redis.Client
	limit  int           // requests per window
	window time.Duration // window size
	prefix string
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(redisClient *redis.Client, limit int, window time.Duration) *SlidingWindowLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindowLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
	}
}

// slidingWindowScript atomically trims the window and counts entries.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local max_requests = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < max_requests then
		redis.call('ZADD', key, now, now .. '-' .. math.random(100000))
		redis.call('PEXPIRE', key, window_ms)
		return 1
	end
	return 0
`)

// Allow reports whether a request under key is within the rate limit.
// Fails open when Redis is unavailable.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) bool {
	if l.redis == nil {
		return true
	}

	now := time.Now()
	windowStart := now.Add(-l.window)

	result, err := slidingWindowScript.Run(ctx, l.redis,
		[]string{l.prefix + key},
		now.UnixMilli(),
		windowStart.UnixMilli(),
		l.limit,
		l.window.Milliseconds(),
	).Int()
	if err != nil {
		// Redis failure must not block scoring triggers
		return true
	}

	return result == 1
}

// Reset clears the window for a key (used in tests and admin tooling).
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	if l.redis == nil {
		return nil
	}
	return l.redis.Del(ctx, l.prefix+key).Err()
}

// Key builds a limiter key scoped to a campaign.
func Key(scope string, campaignID int64) string {
	return fmt.Sprintf("%s:%d", scope, campaignID)
}
