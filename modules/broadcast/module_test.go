package broadcast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startModule(t *testing.T) *Module {
	t.Helper()
	m := NewModule(seedRooms, &mockLogger{})
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, m.Stop(context.Background()))
	})
	return m
}

func TestNewModule(t *testing.T) {
	m := NewModule(seedRooms, &mockLogger{})

	assert.Equal(t, "broadcast", m.Name())
	assert.NotNil(t, m.GetHub())
	assert.Len(t, m.EmitEvents(), 4)
}

func TestModule_Health(t *testing.T) {
	m := startModule(t)

	status := m.Health(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, 0, status.Details["connected_clients"])
	assert.Equal(t, 3, status.Details["rooms"])
}

func TestModule_ListRoomsService(t *testing.T) {
	m := startModule(t)

	resp, err := m.listRooms(context.Background(), ListRoomsRequest{}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Rooms, 3)
	assert.Equal(t, "general", resp.Rooms[0].Name)
}

func TestModule_CreateRoomService(t *testing.T) {
	m := startModule(t)
	ctx := context.Background()

	resp, err := m.createRoom(ctx, CreateRoomRequest{Name: "lounge", CreatedBy: "api"}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, "lounge", resp.Room.Name)
	assert.Empty(t, resp.Error)

	resp, err = m.createRoom(ctx, CreateRoomRequest{Name: "lounge"}, nil)
	require.NoError(t, err)
	assert.False(t, resp.Created)

	resp, err = m.createRoom(ctx, CreateRoomRequest{Name: ""}, nil)
	require.NoError(t, err)
	assert.Equal(t, ErrRoomNameEmpty.Error(), resp.Error)
	assert.Equal(t, 4, m.GetHub().RoomCount())
}

func TestModule_RoomMembersService(t *testing.T) {
	m := startModule(t)
	h := m.GetHub()
	alice := connect(t, h, "a", "alice")
	joinRoom(t, h, alice, "music")
	flush(t, h)

	resp, err := m.roomMembers(context.Background(), RoomMembersRequest{Room: "music"}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, []string{"alice"}, resp.Users)

	resp, err = m.roomMembers(context.Background(), RoomMembersRequest{Room: "missing"}, nil)
	require.NoError(t, err)
	assert.False(t, resp.Found)
	assert.Empty(t, resp.Users)
}
