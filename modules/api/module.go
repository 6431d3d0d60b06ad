package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/room-broadcast-server/middleware/ratelimit"
	"github.com/example/room-broadcast-server/modules/activity"
	"github.com/example/room-broadcast-server/modules/broadcast"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// APIModule is the HTTP API module with WebSocket support.
type APIModule struct {
	app        *fiber.App
	rooms      broadcast.RoomPort
	activity   activity.ActivityPort
	hub        *broadcast.Hub
	limiter    ratelimit.Limiter
	port       string
	sendBuffer int
	logger     types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
)

// Option configures an APIModule.
type Option func(*APIModule)

// WithPort sets the listen port.
func WithPort(port string) Option {
	return func(m *APIModule) {
		m.port = port
	}
}

// WithLimiter rate limits inbound WebSocket frames per connection.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(m *APIModule) {
		m.limiter = l
	}
}

// WithSendBuffer sets the per-connection outbound queue size.
func WithSendBuffer(n int) Option {
	return func(m *APIModule) {
		m.sendBuffer = n
	}
}

// NewModule creates a new APIModule.
func NewModule(logger types.Logger, opts ...Option) *APIModule {
	m := &APIModule{
		port:       "3000",
		sendBuffer: 256,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"broadcast", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "broadcast":
		m.rooms = broadcast.NewRoomAdapter(container)
	case "activity":
		m.activity = activity.NewActivityAdapter(container)
	}
}

// SetHub sets the broadcast hub (called from main.go).
func (m *APIModule) SetHub(hub *broadcast.Hub) {
	m.hub = hub
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.rooms == nil {
		return fmt.Errorf("broadcast adapter dependency not set")
	}
	if m.activity == nil {
		return fmt.Errorf("activity adapter dependency not set")
	}
	if m.hub == nil {
		return fmt.Errorf("broadcast hub dependency not set")
	}

	m.app = m.newApp()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	m.logger.Info("HTTP server started", "port", m.port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	if err := m.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Health returns the health status.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{
		"port": m.port,
	}
	if m.hub != nil {
		details["connected_clients"] = m.hub.ClientCount()
	}
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: details,
	}
}

func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
		UnescapePath:          true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(m.loggerMiddleware())

	m.setupRoutes(app)
	return app
}

// errorHandler handles Fiber errors.
func (m *APIModule) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	if code >= fiber.StatusInternalServerError {
		m.logger.Error("HTTP error", "code", code, "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

// loggerMiddleware returns a Fiber middleware for request logging.
func (m *APIModule) loggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip logging for WebSocket upgrade requests
		if c.Get("Upgrade") == "websocket" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		m.logger.Debug("HTTP request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start))
		return err
	}
}
