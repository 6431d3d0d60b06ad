package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/room-broadcast-server/config"
	"github.com/example/room-broadcast-server/middleware/ratelimit"
	"github.com/example/room-broadcast-server/modules/activity"
	"github.com/example/room-broadcast-server/modules/api"
	"github.com/example/room-broadcast-server/modules/broadcast"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	log.Println("=== Room Broadcast Server - Fiber WebSocket + EventBus ===")

	cfg := config.FromEnv()

	logLevel := mono.LogLevelInfo
	if cfg.LogLevel == "error" {
		logLevel = mono.LogLevelError
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	limiterOpts := []ratelimit.Option{
		ratelimit.WithRate(cfg.RateLimitBurst, cfg.RateLimitPerSecond),
	}
	if cfg.RedisAddr != "" {
		limiterOpts = append(limiterOpts, ratelimit.WithRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	limiter, redisClient, err := ratelimit.New(pingCtx, limiterOpts...)
	cancel()
	if err != nil {
		logger.Warn("Falling back to in-memory rate limiter", "error", err)
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitBurst, cfg.RateLimitPerSecond)
	}

	// Create modules
	broadcastModule := broadcast.NewModule(cfg.SeedRooms, logger)
	activityModule := activity.NewModule(logger)
	apiModule := api.NewModule(logger,
		api.WithPort(cfg.Port),
		api.WithLimiter(limiter),
		api.WithSendBuffer(cfg.SendBuffer),
	)

	// The hub holds live connections, so it is handed over directly rather
	// than through the ServiceContainer.
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// - broadcast: room hub (ServiceProviderModule + EventEmitterModule)
	// - activity: event consumer and stats service
	// - api: Fiber HTTP/WebSocket server, depends on broadcast and activity
	app.Register(broadcastModule)
	app.Register(activityModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	logger.Info("Application started",
		"port", cfg.Port,
		"seedRooms", cfg.SeedRooms,
		"redisRateLimit", redisClient != nil)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated")
				return app.Stop(ctx)
			},
			"redis": func(_ context.Context) error {
				if redisClient == nil {
					return nil
				}
				return redisClient.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}
