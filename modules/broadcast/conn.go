package broadcast

import "errors"

// ErrConnClosed is returned by Conn.Send after the connection closed.
var ErrConnClosed = errors.New("connection closed")

// Conn abstracts one live bidirectional client channel.
// Implementations must make Send non-blocking; the hub calls it from its
// event loop.
type Conn interface {
	// ID identifies the connection in logs and events.
	ID() string

	// Open reports whether the connection still accepts frames.
	Open() bool

	// Send queues one text frame for delivery.
	Send(data []byte) error

	// Close terminates the connection.
	Close() error
}
