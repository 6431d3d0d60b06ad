package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/example/room-broadcast-server/modules/broadcast"
	fastws "github.com/fasthttp/websocket"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLogger keeps Warn and Debug messages so tests can count them.
type recordingLogger struct {
	mu     sync.Mutex
	warns  []string
	debugs []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Info(_ string, _ ...any)          {}
func (l *recordingLogger) Error(_ string, _ ...any)         {}
func (l *recordingLogger) With(_ ...any) types.Logger       { return l }
func (l *recordingLogger) WithModule(_ string) types.Logger { return l }
func (l *recordingLogger) WithError(_ error) types.Logger   { return l }

func (l *recordingLogger) countWarn(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return countMessages(l.warns, msg)
}

func (l *recordingLogger) countDebug(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return countMessages(l.debugs, msg)
}

func countMessages(msgs []string, msg string) int {
	n := 0
	for _, m := range msgs {
		if m == msg {
			n++
		}
	}
	return n
}

// quotaLimiter allows the first quota frames per key and never refills.
type quotaLimiter struct {
	mu     sync.Mutex
	quota  int
	err    error
	calls  map[string]int
	resets []string
}

func newQuotaLimiter(quota int) *quotaLimiter {
	return &quotaLimiter{quota: quota, calls: make(map[string]int)}
}

func (l *quotaLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	l.calls[key]++
	return l.calls[key] <= l.quota, nil
}

func (l *quotaLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets = append(l.resets, key)
	delete(l.calls, key)
	return nil
}

func (l *quotaLimiter) snapshot() (map[string]int, []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	calls := make(map[string]int, len(l.calls))
	for k, v := range l.calls {
		calls[k] = v
	}
	return calls, append([]string(nil), l.resets...)
}

// wsFrame is the union of every server -> client frame.
type wsFrame struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Username string   `json:"username"`
	Text     string   `json:"text"`
	Room     string   `json:"room"`
	Users    []string `json:"users"`
}

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return strconv.Itoa(port)
}

func dial(t *testing.T, port string) *fastws.Conn {
	t.Helper()
	conn, _, err := fastws.DefaultDialer.Dial(fmt.Sprintf("ws://127.0.0.1:%s/ws", port), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func write(t *testing.T, conn *fastws.Conn, msg broadcast.Inbound) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(fastws.TextMessage, data))
}

// readUntil reads frames until match returns true and returns every frame
// read, the matching one last.
func readUntil(t *testing.T, conn *fastws.Conn, match func(wsFrame) bool) []wsFrame {
	t.Helper()
	var frames []wsFrame
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "frames so far: %+v", frames)

		var f wsFrame
		require.NoError(t, json.Unmarshal(data, &f))
		frames = append(frames, f)
		if match(f) {
			return frames
		}
	}
}

// drain reads until the connection stays quiet for d.
func drain(conn *fastws.Conn, d time.Duration) []wsFrame {
	var frames []wsFrame
	for {
		_ = conn.SetReadDeadline(time.Now().Add(d))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return frames
		}
		var f wsFrame
		if json.Unmarshal(data, &f) == nil {
			frames = append(frames, f)
		}
	}
}

func isNotification(text string) func(wsFrame) bool {
	return func(f wsFrame) bool {
		return f.Type == broadcast.TypeNotification && f.Message == text
	}
}

func framesOfType(frames []wsFrame, typ string) []wsFrame {
	var out []wsFrame
	for _, f := range frames {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func TestWebSocket_RelayRateLimitAndClose(t *testing.T) {
	port := freePort(t)
	limiter := newQuotaLimiter(3)
	logger := &recordingLogger{}
	_, broadcastModule := startAppWith(t, logger, WithPort(port), WithLimiter(limiter))
	hub := broadcastModule.GetHub()

	bob := dial(t, port)
	write(t, bob, broadcast.Inbound{Type: broadcast.TypeRegister, Username: "bob"})
	write(t, bob, broadcast.Inbound{Type: broadcast.TypeJoin, Room: "general"})
	readUntil(t, bob, isNotification("bob joined the room"))

	alice := dial(t, port)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	// register, join and one message use up alice's three frames
	write(t, alice, broadcast.Inbound{Type: broadcast.TypeRegister, Username: "alice"})
	write(t, alice, broadcast.Inbound{Type: broadcast.TypeJoin, Room: "general"})
	write(t, alice, broadcast.Inbound{Type: broadcast.TypeMessage, Text: "hi"})

	frames := readUntil(t, bob, func(f wsFrame) bool { return f.Type == broadcast.TypeMessage })
	assert.NotEmpty(t, framesOfType(frames, broadcast.TypeUserList))
	assert.Contains(t, frames, wsFrame{Type: broadcast.TypeNotification, Message: "alice joined the room"})
	msg := frames[len(frames)-1]
	assert.Equal(t, "alice", msg.Username)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, "general", msg.Room)

	for i := 0; i < 5; i++ {
		write(t, alice, broadcast.Inbound{Type: broadcast.TypeMessage, Text: fmt.Sprintf("flood-%d", i)})
	}

	// Dropping the TCP connection without a close frame surfaces as a read
	// error on the server, which must be handled as a disconnect. The flood
	// frames precede it on the wire, so they are all read before the leave.
	require.NoError(t, alice.Close())

	frames = readUntil(t, bob, isNotification("alice left the room"))
	assert.Empty(t, framesOfType(frames, broadcast.TypeMessage), "rate limited frames must not be relayed")
	users := framesOfType(frames, broadcast.TypeUserList)
	require.NotEmpty(t, users)
	assert.Equal(t, []string{"bob"}, users[len(users)-1].Users)

	rest := drain(bob, 300*time.Millisecond)
	assert.Empty(t, framesOfType(rest, broadcast.TypeMessage))
	assert.NotContains(t, rest, wsFrame{Type: broadcast.TypeNotification, Message: "alice left the room"})

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	members, found := hub.Members("general")
	require.True(t, found)
	assert.Equal(t, []string{"bob"}, members)

	// alice's counter was reset on disconnect; bob's is still live
	require.Eventually(t, func() bool {
		_, resets := limiter.snapshot()
		return len(resets) == 1
	}, 2*time.Second, 10*time.Millisecond)
	calls, resets := limiter.snapshot()
	require.Len(t, calls, 1)
	assert.NotContains(t, calls, resets[0])
	for _, n := range calls {
		assert.Equal(t, 2, n)
	}

	assert.Equal(t, 1, logger.countWarn("Rate limit exceeded, dropping frames"))
	assert.Equal(t, 4, logger.countDebug("Rate limit exceeded, dropping frame"))
}

func TestAllow_LogsOncePerLimitedBurst(t *testing.T) {
	limiter := newQuotaLimiter(1)
	logger := &recordingLogger{}
	m := &APIModule{logger: logger, limiter: limiter}
	throttled := false

	assert.True(t, m.allow("conn-1", &throttled))
	for i := 0; i < 10; i++ {
		assert.False(t, m.allow("conn-1", &throttled))
	}
	assert.True(t, throttled)
	assert.Equal(t, 1, logger.countWarn("Rate limit exceeded, dropping frames"))
	assert.Equal(t, 9, logger.countDebug("Rate limit exceeded, dropping frame"))

	// an allowed frame ends the burst, so the next drop warns again
	require.NoError(t, limiter.Reset(context.Background(), "conn-1"))
	assert.True(t, m.allow("conn-1", &throttled))
	assert.False(t, throttled)
	assert.False(t, m.allow("conn-1", &throttled))
	assert.Equal(t, 2, logger.countWarn("Rate limit exceeded, dropping frames"))
}

func TestAllow_LimiterErrorLetsFrameThrough(t *testing.T) {
	limiter := newQuotaLimiter(0)
	limiter.err = errors.New("redis down")
	logger := &recordingLogger{}
	m := &APIModule{logger: logger, limiter: limiter}
	throttled := false

	assert.True(t, m.allow("conn-1", &throttled))
	assert.False(t, throttled)
	assert.Equal(t, 1, logger.countWarn("Rate limiter unavailable, allowing frame"))
}

func TestAllow_NoLimiter(t *testing.T) {
	m := &APIModule{logger: &recordingLogger{}}
	throttled := false
	for i := 0; i < 100; i++ {
		assert.True(t, m.allow("conn-1", &throttled))
	}
}
