// Package config holds the runtime configuration of the room broadcast server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds server configuration.
type Config struct {
	// Port is the HTTP/WebSocket listen port (default: "3000")
	Port string

	// SeedRooms are created at startup, in order
	SeedRooms []string

	// LogLevel is info or error (default: "info")
	LogLevel string

	// RedisAddr enables the Redis sliding window limiter when non-empty
	RedisAddr string

	// RedisPassword is the Redis authentication password (optional)
	RedisPassword string

	// RedisDB is the Redis database number (default: 0)
	RedisDB int

	// RateLimitBurst is the number of inbound frames a client may send at once
	RateLimitBurst int

	// RateLimitPerSecond is the sustained inbound frame rate per client
	RateLimitPerSecond int

	// SendBuffer is the per-client outbound frame buffer
	SendBuffer int

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:               "3000",
		SeedRooms:          []string{"general", "games", "music"},
		LogLevel:           "info",
		RedisDB:            0,
		RateLimitBurst:     20,
		RateLimitPerSecond: 10,
		SendBuffer:         256,
		ShutdownTimeout:    30 * time.Second,
	}
}

// Option is a function that modifies Config.
type Option func(*Config)

// New returns DefaultConfig with opts applied.
func New(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPort sets the listen port.
func WithPort(port string) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithSeedRooms replaces the startup room set.
func WithSeedRooms(rooms ...string) Option {
	return func(c *Config) {
		c.SeedRooms = rooms
	}
}

// WithRedis enables the Redis limiter.
func WithRedis(addr, password string, db int) Option {
	return func(c *Config) {
		c.RedisAddr = addr
		c.RedisPassword = password
		c.RedisDB = db
	}
}

// WithRateLimit sets the per-client inbound limit.
func WithRateLimit(burst, perSecond int) Option {
	return func(c *Config) {
		c.RateLimitBurst = burst
		c.RateLimitPerSecond = perSecond
	}
}

// FromEnv builds a Config from environment variables, falling back to defaults.
func FromEnv() Config {
	def := DefaultConfig()
	opts := []Option{
		WithPort(getEnv("PORT", def.Port)),
		WithRedis(getEnv("REDIS_ADDR", ""), getEnv("REDIS_PASSWORD", ""), getEnvInt("REDIS_DB", def.RedisDB)),
		WithRateLimit(
			getEnvPositiveInt("RATE_LIMIT_BURST", def.RateLimitBurst),
			getEnvPositiveInt("RATE_LIMIT_PER_SECOND", def.RateLimitPerSecond),
		),
	}
	if rooms := splitCSV(os.Getenv("SEED_ROOMS")); len(rooms) > 0 {
		opts = append(opts, WithSeedRooms(rooms...))
	}

	cfg := New(opts...)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", def.LogLevel))
	cfg.SendBuffer = getEnvPositiveInt("SEND_BUFFER", def.SendBuffer)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", def.ShutdownTimeout)
	return cfg
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses a non-negative int env var with a fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i >= 0 {
			return i
		}
	}
	return defaultValue
}

// getEnvPositiveInt parses an int env var that must be greater than zero.
func getEnvPositiveInt(key string, defaultValue int) int {
	if i := getEnvInt(key, defaultValue); i > 0 {
		return i
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
