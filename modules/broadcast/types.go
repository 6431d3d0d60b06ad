package broadcast

import "github.com/example/room-broadcast-server/domain/room"

// Service names registered by the broadcast module.
const (
	ServiceListRooms   = "list-rooms"
	ServiceCreateRoom  = "create-room"
	ServiceRoomMembers = "room-members"
)

// ListRoomsRequest is the request for listing rooms.
type ListRoomsRequest struct{}

// ListRoomsResponse is the response for listing rooms.
type ListRoomsResponse struct {
	Rooms []room.Summary `json:"rooms"`
}

// CreateRoomRequest is the request for creating a room.
type CreateRoomRequest struct {
	Name      string `json:"name"`
	CreatedBy string `json:"created_by,omitempty"`
}

// CreateRoomResponse is the response for creating a room.
// Validation failures are reported in Error rather than as a transport error.
type CreateRoomResponse struct {
	Room    room.Summary `json:"room"`
	Created bool         `json:"created"`
	Error   string       `json:"error,omitempty"`
}

// RoomMembersRequest is the request for a room's member list.
type RoomMembersRequest struct {
	Room string `json:"room"`
}

// RoomMembersResponse is the response for a room's member list.
type RoomMembersResponse struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
	Found bool     `json:"found"`
}
