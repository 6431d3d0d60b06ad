package api

import (
	"errors"
	"sync"
	"time"

	"github.com/example/room-broadcast-server/modules/broadcast"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 64 * 1024
)

// ErrSendBufferFull is returned when a client's outbound queue is full.
var ErrSendBufferFull = errors.New("send buffer full")

// client adapts one WebSocket connection to broadcast.Conn. Frames are
// queued by Send and written by writePump so the hub never waits on the
// network.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger types.Logger

	mu   sync.Mutex
	open bool
}

var _ broadcast.Conn = (*client)(nil)

func newClient(id string, conn *websocket.Conn, buffer int, logger types.Logger) *client {
	if buffer <= 0 {
		buffer = 1
	}
	return &client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		logger: logger,
		open:   true,
	}
}

func (c *client) ID() string {
	return c.id
}

func (c *client) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return broadcast.ErrConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops accepting frames. writePump flushes what is queued, then
// closes the socket.
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil
	}
	c.open = false
	close(c.send)
	return nil
}

func (c *client) writePump() {
	defer close(c.done)

	failed := false
	for data := range c.send {
		if failed {
			continue
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.logger.Debug("WebSocket write failed", "connID", c.id, "error", err)
			failed = true
			_ = c.Close()
		}
	}

	if !failed {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	// unblocks the read loop when the hub closed us first
	_ = c.conn.Close()
}
