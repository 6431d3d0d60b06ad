package broadcast

import (
	"context"
	"errors"

	"github.com/example/room-broadcast-server/domain/room"
	"github.com/go-monolith/mono"
)

func (m *Module) listRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.hub.Rooms()}, nil
}

func (m *Module) createRoom(ctx context.Context, req CreateRoomRequest, _ *mono.Msg) (CreateRoomResponse, error) {
	created, err := m.hub.CreateRoom(ctx, req.Name, req.CreatedBy)
	if err != nil {
		if errors.Is(err, ErrHubStopped) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return CreateRoomResponse{}, err
		}
		return CreateRoomResponse{Error: err.Error()}, nil
	}

	resp := CreateRoomResponse{
		Room:    room.Summary{Name: req.Name},
		Created: created,
	}
	for _, r := range m.hub.Rooms() {
		if r.Name == req.Name {
			resp.Room = r
			break
		}
	}
	return resp, nil
}

func (m *Module) roomMembers(_ context.Context, req RoomMembersRequest, _ *mono.Msg) (RoomMembersResponse, error) {
	users, found := m.hub.Members(req.Room)
	if !found {
		return RoomMembersResponse{Room: req.Room, Users: []string{}}, nil
	}
	return RoomMembersResponse{Room: req.Room, Users: users, Found: true}, nil
}
