package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/room-broadcast-server/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module consumes broadcast events and serves activity counters.
type Module struct {
	recorder *Recorder
	logger   types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new activity module.
func NewModule(logger types.Logger) *Module {
	return &Module{
		recorder: NewRecorder(),
		logger:   logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "activity"
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started")
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	s := m.recorder.Snapshot()
	m.logger.Info("Activity module stopped",
		"messages", s.Messages,
		"joins", s.Joins,
		"leaves", s.Leaves,
		"roomsCreated", s.RoomsCreated)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	s := m.recorder.Snapshot()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"messages": s.Messages,
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomCreatedV1, m.handleRoomCreated, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomCreated consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserLeftV1, m.handleUserLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{"RoomCreated", "UserJoined", "UserLeft", "MessageSent"})
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceStats,
		json.Unmarshal,
		json.Marshal,
		m.handleStats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceStats, err)
	}
	return nil
}

// Recorder returns the module's counters.
func (m *Module) Recorder() *Recorder {
	return m.recorder
}

func (m *Module) handleRoomCreated(_ context.Context, event events.RoomCreatedEvent, _ *mono.Msg) error {
	m.logger.Debug("Room created", "room", event.RoomName, "createdBy", event.CreatedBy)
	m.recorder.roomCreated(event.Timestamp)
	return nil
}

func (m *Module) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.logger.Debug("User joined", "room", event.RoomName, "username", event.Username)
	m.recorder.joined(event.Timestamp)
	return nil
}

func (m *Module) handleUserLeft(_ context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	m.logger.Debug("User left", "room", event.RoomName, "username", event.Username)
	m.recorder.left(event.Timestamp)
	return nil
}

func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.recorder.messageSent(event.RoomName, event.Timestamp)
	return nil
}

func (m *Module) handleStats(_ context.Context, _ StatsRequest, _ *mono.Msg) (StatsResponse, error) {
	return StatsResponse{Stats: m.recorder.Snapshot()}, nil
}
