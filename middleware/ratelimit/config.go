package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter configuration.
type Config struct {
	// Burst is the number of frames a client may send back to back.
	Burst int

	// PerSecond is the sustained number of frames per second.
	PerSecond int

	// RedisAddr selects the Redis backed limiter when non-empty.
	RedisAddr string

	// RedisPassword is the Redis authentication password (optional)
	RedisPassword string

	// RedisDB is the Redis database number (default: 0)
	RedisDB int

	// KeyPrefix is the prefix for Redis keys (default: "ratelimit:ws:")
	KeyPrefix string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Burst:     20,
		PerSecond: 10,
		KeyPrefix: "ratelimit:ws:",
	}
}

// Option is a function that modifies Config.
type Option func(*Config)

// WithRate sets the burst size and sustained rate.
func WithRate(burst, perSecond int) Option {
	return func(c *Config) {
		c.Burst = burst
		c.PerSecond = perSecond
	}
}

// WithRedis selects the Redis backend.
func WithRedis(addr, password string, db int) Option {
	return func(c *Config) {
		c.RedisAddr = addr
		c.RedisPassword = password
		c.RedisDB = db
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// normalized replaces a non-positive Burst or PerSecond with its default so
// both backends enforce the same limit.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Burst <= 0 {
		c.Burst = def.Burst
	}
	if c.PerSecond <= 0 {
		c.PerSecond = def.PerSecond
	}
	return c
}

// Window is the sliding window over which Burst frames are allowed.
func (c Config) Window() time.Duration {
	c = c.normalized()
	return time.Duration(c.Burst) * time.Second / time.Duration(c.PerSecond)
}

// New builds a limiter from opts applied to DefaultConfig. With a Redis
// address it pings the server and returns the client so the caller can close
// it; otherwise the client is nil.
func New(ctx context.Context, opts ...Option) (Limiter, *redis.Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.normalized()

	if cfg.RedisAddr == "" {
		return NewMemoryLimiter(cfg.Burst, cfg.PerSecond), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	return NewRedisLimiter(client, cfg.KeyPrefix, cfg.Burst, cfg.Window()), client, nil
}
