package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/room-broadcast-server/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module owns the room hub and publishes its domain events on the EventBus.
type Module struct {
	hub       *Hub
	eventBus  mono.EventBus
	logger    types.Logger
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new broadcast module with the given seed rooms.
func NewModule(seedRooms []string, logger types.Logger, opts ...Option) *Module {
	m := &Module{logger: logger}
	opts = append([]Option{WithPublisher(busPublisher{m: m})}, opts...)
	m.hub = NewHub(logger, seedRooms, opts...)
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomCreatedV1.ToBase(),
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
		events.MessageSentV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceListRooms,
		json.Unmarshal,
		json.Marshal,
		m.listRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceCreateRoom,
		json.Unmarshal,
		json.Marshal,
		m.createRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateRoom, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		ServiceRoomMembers,
		json.Unmarshal,
		json.Marshal,
		m.roomMembers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomMembers, err)
	}

	m.logger.Info("Registered broadcast services",
		"services", []string{ServiceListRooms, ServiceCreateRoom, ServiceRoomMembers})
	return nil
}

// Start runs the hub event loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	m.logger.Info("Broadcast module started", "rooms", m.hub.RoomCount())
	return nil
}

// Stop closes every connection and waits for the hub to exit.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	m.logger.Info("Broadcast module stopped", "connectedClients", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
			"rooms":             m.hub.RoomCount(),
		},
	}
}

// GetHub returns the hub for the API module to attach WebSocket connections.
func (m *Module) GetHub() *Hub {
	return m.hub
}

// busPublisher forwards hub events to the EventBus once it is available.
type busPublisher struct {
	m *Module
}

func (p busPublisher) RoomCreated(event events.RoomCreatedEvent) {
	if p.m.eventBus == nil {
		return
	}
	if err := events.RoomCreatedV1.Publish(p.m.eventBus, event, nil); err != nil {
		p.m.logger.Warn("Failed to publish RoomCreated event", "error", err)
	}
}

func (p busPublisher) UserJoined(event events.UserJoinedEvent) {
	if p.m.eventBus == nil {
		return
	}
	if err := events.UserJoinedV1.Publish(p.m.eventBus, event, nil); err != nil {
		p.m.logger.Warn("Failed to publish UserJoined event", "error", err)
	}
}

func (p busPublisher) UserLeft(event events.UserLeftEvent) {
	if p.m.eventBus == nil {
		return
	}
	if err := events.UserLeftV1.Publish(p.m.eventBus, event, nil); err != nil {
		p.m.logger.Warn("Failed to publish UserLeft event", "error", err)
	}
}

func (p busPublisher) MessageSent(event events.MessageSentEvent) {
	if p.m.eventBus == nil {
		return
	}
	if err := events.MessageSentV1.Publish(p.m.eventBus, event, nil); err != nil {
		p.m.logger.Warn("Failed to publish MessageSent event", "error", err)
	}
}
