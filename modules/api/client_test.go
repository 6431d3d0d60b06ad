package api

import (
	"testing"

	"github.com/example/room-broadcast-server/modules/broadcast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendQueuesUntilFull(t *testing.T) {
	c := newClient("c1", nil, 2, &mockLogger{})

	require.NoError(t, c.Send([]byte("one")))
	require.NoError(t, c.Send([]byte("two")))
	assert.ErrorIs(t, c.Send([]byte("three")), ErrSendBufferFull)

	assert.Equal(t, []byte("one"), <-c.send)
	assert.NoError(t, c.Send([]byte("three")))
}

func TestClient_Close(t *testing.T) {
	c := newClient("c1", nil, 1, &mockLogger{})
	assert.True(t, c.Open())

	require.NoError(t, c.Close())
	assert.False(t, c.Open())
	assert.ErrorIs(t, c.Send([]byte("late")), broadcast.ErrConnClosed)

	// idempotent
	assert.NoError(t, c.Close())

	_, ok := <-c.send
	assert.False(t, ok)
}
