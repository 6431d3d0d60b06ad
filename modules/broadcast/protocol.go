package broadcast

import (
	"github.com/example/room-broadcast-server/domain/room"
)

// Message types for WebSocket communication.
const (
	// client -> server
	TypeRegister   = "register"
	TypeJoin       = "join"
	TypeCreateRoom = "createRoom"
	TypeMessage    = "message"

	// server -> client
	TypeRoomList     = "roomList"
	TypeUserList     = "userList"
	TypeNotification = "notification"
)

// Inbound is the union of every client -> server frame.
type Inbound struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Room     string `json:"room,omitempty"`
	RoomName string `json:"roomName,omitempty"`
	Text     string `json:"text,omitempty"`
}

// RoomListMessage lists every room with its member count.
type RoomListMessage struct {
	Type  string         `json:"type"`
	Rooms []room.Summary `json:"rooms"`
}

// UserListMessage lists the usernames currently in a room.
type UserListMessage struct {
	Type  string   `json:"type"`
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// NotificationMessage carries a human readable room event.
type NotificationMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ChatMessage is a message relayed to every member of a room.
type ChatMessage struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Text     string `json:"text"`
	Time     string `json:"time"`
	Room     string `json:"room"`
}

func joinedNotice(username string) NotificationMessage {
	return NotificationMessage{Type: TypeNotification, Message: username + " joined the room"}
}

func leftNotice(username string) NotificationMessage {
	return NotificationMessage{Type: TypeNotification, Message: username + " left the room"}
}
