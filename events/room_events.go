package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomCreatedEvent is emitted when a new room is created.
type RoomCreatedEvent struct {
	RoomName  string    `json:"room_name"`
	CreatedBy string    `json:"created_by,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// UserJoinedEvent is emitted when a connection joins a room.
type UserJoinedEvent struct {
	RoomName     string    `json:"room_name"`
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	Timestamp    time.Time `json:"timestamp"`
}

// UserLeftEvent is emitted when a connection leaves a room, by joining
// another one, re-registering or disconnecting.
type UserLeftEvent struct {
	RoomName     string    `json:"room_name"`
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	Timestamp    time.Time `json:"timestamp"`
}

// MessageSentEvent is emitted when a message is broadcast to a room.
type MessageSentEvent struct {
	RoomName     string    `json:"room_name"`
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
}

// Event definitions for the broadcast domain.
var (
	RoomCreatedV1 = helper.EventDefinition[RoomCreatedEvent](
		"broadcast",
		"RoomCreated",
		"v1",
	)

	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"broadcast",
		"UserJoined",
		"v1",
	)

	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"broadcast",
		"UserLeft",
		"v1",
	)

	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"broadcast",
		"MessageSent",
		"v1",
	)
)
