package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims expired entries, then admits the request when the
// window still has room. The counter key keeps members unique within one ms.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)
	if current >= limit then
		return 0
	end

	local counter = redis.call('INCR', key .. ':counter')
	redis.call('ZADD', key, now, now .. ':' .. counter)
	redis.call('PEXPIRE', key, window_ms)
	redis.call('PEXPIRE', key .. ':counter', window_ms)
	return 1
`)

// RedisLimiter implements a sliding window limit shared by every server
// instance pointing at the same Redis.
type RedisLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a limiter allowing limit frames per window.
// Non-positive values fall back to the DefaultConfig limit and window.
func NewRedisLimiter(client *redis.Client, keyPrefix string, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = DefaultConfig().Burst
	}
	if window <= 0 {
		window = DefaultConfig().Window()
	}
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
	}
}

// Allow records one frame for key if the window has room.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	nowMs := now.UnixMilli()
	windowStartMs := now.Add(-l.window).UnixMilli()

	result, err := slidingWindowScript.Run(ctx, l.client,
		[]string{l.keyPrefix + key},
		nowMs, windowStartMs, l.limit, l.window.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("redis script error: %w", err)
	}
	return result == 1, nil
}

// Reset clears the window for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	redisKey := l.keyPrefix + key
	return l.client.Del(ctx, redisKey, redisKey+":counter").Err()
}
