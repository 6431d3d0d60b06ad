package api

import (
	"context"

	"github.com/example/room-broadcast-server/modules/broadcast"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	// Health check
	app.Get("/health", m.healthHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(m.handleWebSocket))

	// REST API v1
	api := app.Group("/api/v1")

	api.Get("/rooms", m.listRooms)
	api.Post("/rooms", m.createRoom)
	api.Get("/rooms/:name/members", m.roomMembers)
	api.Get("/stats", m.stats)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
			"rooms":             m.hub.RoomCount(),
		},
	})
}

// listRooms handles GET /api/v1/rooms.
func (m *APIModule) listRooms(c *fiber.Ctx) error {
	rooms, err := m.rooms.ListRooms(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to list rooms", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list rooms",
		})
	}

	return c.JSON(RoomListResponse{
		Rooms: rooms,
		Total: len(rooms),
	})
}

// createRoom handles POST /api/v1/rooms.
func (m *APIModule) createRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	room, created, err := m.rooms.CreateRoom(c.UserContext(), req.Name, "api")
	if err != nil {
		if broadcast.IsInvalidRequest(err) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
		}
		m.logger.Error("Failed to create room", "room", req.Name, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create room",
		})
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(RoomResponse{
		Name:      room.Name,
		UserCount: room.UserCount,
		Created:   created,
	})
}

// roomMembers handles GET /api/v1/rooms/:name/members.
func (m *APIModule) roomMembers(c *fiber.Ctx) error {
	name := c.Params("name")

	users, found, err := m.rooms.RoomMembers(c.UserContext(), name)
	if err != nil {
		m.logger.Error("Failed to get room members", "room", name, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "members_failed",
			Message: "Failed to get room members",
		})
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room not found",
		})
	}
	if users == nil {
		users = []string{}
	}

	return c.JSON(MembersResponse{Room: name, Users: users})
}

// stats handles GET /api/v1/stats.
func (m *APIModule) stats(c *fiber.Ctx) error {
	s, err := m.activity.Stats(c.UserContext())
	if err != nil {
		m.logger.Error("Failed to get stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "stats_failed",
			Message: "Failed to get stats",
		})
	}

	resp := StatsResponse{
		ConnectedClients: m.hub.ClientCount(),
		Rooms:            m.hub.RoomCount(),
		RoomsCreated:     s.RoomsCreated,
		Joins:            s.Joins,
		Leaves:           s.Leaves,
		Messages:         s.Messages,
		MessagesByRoom:   s.MessagesByRoom,
	}
	if resp.MessagesByRoom == nil {
		resp.MessagesByRoom = map[string]int{}
	}
	if !s.LastActivity.IsZero() {
		last := s.LastActivity
		resp.LastActivity = &last
	}
	return c.JSON(resp)
}

// handleWebSocket handles WebSocket connections at /ws.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	cl := newClient(uuid.New().String(), c, m.sendBuffer, m.logger)
	go cl.writePump()

	if err := m.hub.Connect(cl); err != nil {
		m.logger.Warn("Rejecting WebSocket connection", "connID", cl.ID(), "error", err)
		_ = cl.Close()
		<-cl.done
		return
	}
	m.logger.Info("WebSocket client connected", "connID", cl.ID(), "remote", c.RemoteAddr().String())

	defer func() {
		_ = m.hub.Disconnect(cl)
		_ = cl.Close()
		<-cl.done
		if m.limiter != nil {
			if err := m.limiter.Reset(context.Background(), cl.ID()); err != nil {
				m.logger.Debug("Failed to reset rate limit", "connID", cl.ID(), "error", err)
			}
		}
		m.logger.Info("WebSocket client disconnected", "connID", cl.ID())
	}()

	c.SetReadLimit(maxFrameSize)
	throttled := false
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Warn("WebSocket read error", "connID", cl.ID(), "error", err)
			}
			return
		}

		if !m.allow(cl.ID(), &throttled) {
			continue
		}
		if err := m.hub.Receive(cl, data); err != nil {
			return
		}
	}
}

// allow applies the frame rate limit. Limiter errors let the frame through.
// throttled tracks whether the connection is already over its limit, so only
// the first dropped frame of a burst is logged at Warn.
func (m *APIModule) allow(connID string, throttled *bool) bool {
	if m.limiter == nil {
		return true
	}
	ok, err := m.limiter.Allow(context.Background(), connID)
	if err != nil {
		m.logger.Warn("Rate limiter unavailable, allowing frame", "connID", connID, "error", err)
		return true
	}
	if ok {
		*throttled = false
		return true
	}
	if *throttled {
		m.logger.Debug("Rate limit exceeded, dropping frame", "connID", connID)
	} else {
		*throttled = true
		m.logger.Warn("Rate limit exceeded, dropping frames", "connID", connID)
	}
	return false
}
