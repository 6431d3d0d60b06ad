package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/room-broadcast-server/domain/room"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RoomPort defines the room operations available to other modules.
type RoomPort interface {
	ListRooms(ctx context.Context) ([]room.Summary, error)
	CreateRoom(ctx context.Context, name, createdBy string) (room.Summary, bool, error)
	RoomMembers(ctx context.Context, name string) ([]string, bool, error)
}

// RoomAdapter implements RoomPort using the service container.
type RoomAdapter struct {
	container mono.ServiceContainer
}

// NewRoomAdapter creates a new RoomAdapter.
func NewRoomAdapter(container mono.ServiceContainer) RoomPort {
	if container == nil {
		panic("broadcast: ServiceContainer is nil")
	}
	return &RoomAdapter{container: container}
}

// ListRooms returns every room with its member count.
func (a *RoomAdapter) ListRooms(ctx context.Context) ([]room.Summary, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// CreateRoom creates a room, reporting whether it was newly created.
// Invalid names yield an error wrapping the validation message.
func (a *RoomAdapter) CreateRoom(ctx context.Context, name, createdBy string) (room.Summary, bool, error) {
	req := CreateRoomRequest{Name: name, CreatedBy: createdBy}
	var resp CreateRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreateRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return room.Summary{}, false, fmt.Errorf("failed to create room: %w", err)
	}
	if resp.Error != "" {
		return room.Summary{}, false, &InvalidRequestError{Message: resp.Error}
	}
	return resp.Room, resp.Created, nil
}

// RoomMembers returns the usernames in a room and whether the room exists.
func (a *RoomAdapter) RoomMembers(ctx context.Context, name string) ([]string, bool, error) {
	req := RoomMembersRequest{Room: name}
	var resp RoomMembersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomMembers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, false, fmt.Errorf("failed to get room members: %w", err)
	}
	return resp.Users, resp.Found, nil
}

// InvalidRequestError reports a request rejected by validation.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	return e.Message
}

// IsInvalidRequest reports whether err was caused by invalid input.
func IsInvalidRequest(err error) bool {
	var target *InvalidRequestError
	return errors.As(err, &target)
}
