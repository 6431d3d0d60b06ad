package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, []string{"general", "games", "music"}, cfg.SeedRooms)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestNew_AppliesOptions(t *testing.T) {
	cfg := New(
		WithPort("8080"),
		WithSeedRooms("lobby"),
		WithRedis("localhost:6379", "secret", 2),
		WithRateLimit(5, 1),
	)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"lobby"}, cfg.SeedRooms)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "secret", cfg.RedisPassword)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, 1, cfg.RateLimitPerSecond)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("SEED_ROOMS", " alpha, ,beta ")
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg := FromEnv()

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.SeedRooms)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, DefaultConfig().RateLimitBurst, cfg.RateLimitBurst)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "general", want: []string{"general"}},
		{name: "spaces and blanks", in: " a ,, b ,", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCSV(tt.in))
		})
	}
}

func TestFromEnv_NonPositiveLimitsUseDefaults(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"zero", "0"},
		{"negative", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RATE_LIMIT_BURST", tt.value)
			t.Setenv("RATE_LIMIT_PER_SECOND", tt.value)
			t.Setenv("SEND_BUFFER", tt.value)
			t.Setenv("REDIS_DB", "0")

			cfg := FromEnv()
			def := DefaultConfig()

			assert.Equal(t, def.RateLimitBurst, cfg.RateLimitBurst)
			assert.Equal(t, def.RateLimitPerSecond, cfg.RateLimitPerSecond)
			assert.Equal(t, def.SendBuffer, cfg.SendBuffer)
			// REDIS_DB 0 is a valid database index
			assert.Equal(t, 0, cfg.RedisDB)
		})
	}
}
