package api

import (
	"time"

	"github.com/example/room-broadcast-server/domain/room"
)

// CreateRoomRequest is the API request to create a room.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// RoomResponse is the API response for a room.
type RoomResponse struct {
	Name      string `json:"name"`
	UserCount int    `json:"userCount"`
	Created   bool   `json:"created"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []room.Summary `json:"rooms"`
	Total int            `json:"total"`
}

// MembersResponse is the API response for a room's members.
type MembersResponse struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// StatsResponse is the API response for activity statistics.
type StatsResponse struct {
	ConnectedClients int            `json:"connected_clients"`
	Rooms            int            `json:"rooms"`
	RoomsCreated     int            `json:"rooms_created"`
	Joins            int            `json:"joins"`
	Leaves           int            `json:"leaves"`
	Messages         int            `json:"messages"`
	MessagesByRoom   map[string]int `json:"messages_by_room"`
	LastActivity     *time.Time     `json:"last_activity,omitempty"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
