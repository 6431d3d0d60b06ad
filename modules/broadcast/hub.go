package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/room-broadcast-server/domain/room"
	"github.com/example/room-broadcast-server/events"
	"github.com/go-monolith/mono/pkg/types"
)

// ErrHubStopped is returned when an event is submitted after the hub stopped.
var ErrHubStopped = errors.New("hub stopped")

const defaultQueueSize = 256

// EventPublisher receives domain events after each state change.
type EventPublisher interface {
	RoomCreated(event events.RoomCreatedEvent)
	UserJoined(event events.UserJoinedEvent)
	UserLeft(event events.UserLeftEvent)
	MessageSent(event events.MessageSentEvent)
}

// session is the per-connection state. identity is nil until register.
type session struct {
	conn     Conn
	identity *room.Identity
}

type roomState struct {
	name    string
	members map[Conn]struct{}
}

// Hub owns the connection and room registries and relays messages between
// connections sharing a room.
//
// Connection events are processed one at a time by Run in arrival order.
// Every operation also runs under mu, so snapshot readers never see a
// half-applied join.
type Hub struct {
	sessions map[Conn]*session
	rooms    map[string]*roomState
	order    []string // room names in creation order

	events chan func()
	done   chan struct{}
	mu     sync.RWMutex

	logger    types.Logger
	publisher EventPublisher
	now       func() time.Time
}

// Option configures a Hub.
type Option func(*Hub)

// WithPublisher sets the domain event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(h *Hub) {
		h.publisher = p
	}
}

// WithClock overrides the clock used to stamp messages.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.now = now
	}
}

// WithQueueSize sets the event queue capacity.
func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.events = make(chan func(), n)
		}
	}
}

// NewHub creates a Hub with the given seed rooms.
func NewHub(logger types.Logger, seedRooms []string, opts ...Option) *Hub {
	h := &Hub{
		sessions: make(map[Conn]*session),
		rooms:    make(map[string]*roomState),
		events:   make(chan func(), defaultQueueSize),
		done:     make(chan struct{}),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}

	for _, name := range seedRooms {
		if err := ValidateRoomName(name); err != nil {
			logger.Warn("Skipping invalid seed room", "room", name, "error", err)
			continue
		}
		if _, exists := h.rooms[name]; !exists {
			h.addRoom(name)
		}
	}
	return h
}

// Run processes connection events until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllClients()
			return
		case fn := <-h.events:
			fn()
		}
	}
}

// Wait blocks until Run has returned.
func (h *Hub) Wait() {
	<-h.done
}

func (h *Hub) submit(fn func()) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.events <- fn:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Connect registers a newly opened connection.
func (h *Hub) Connect(conn Conn) error {
	return h.submit(func() { h.handleConnect(conn) })
}

// Disconnect handles a closed connection.
func (h *Hub) Disconnect(conn Conn) error {
	return h.submit(func() { h.handleDisconnect(conn) })
}

// Receive queues one inbound frame from conn.
func (h *Hub) Receive(conn Conn, raw []byte) error {
	data := append([]byte(nil), raw...)
	return h.submit(func() { h.dispatch(conn, data) })
}

// CreateRoom creates a room outside of any connection, e.g. from the REST
// API. It reports whether the room was newly created.
func (h *Hub) CreateRoom(ctx context.Context, name, createdBy string) (bool, error) {
	if err := ValidateRoomName(name); err != nil {
		return false, err
	}
	result := make(chan bool, 1)
	if err := h.submit(func() { result <- h.handleCreateRoom(name, createdBy) }); err != nil {
		return false, err
	}
	select {
	case created := <-result:
		return created, nil
	case <-h.done:
		return false, ErrHubStopped
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Rooms returns every room with its member count, in creation order.
func (h *Hub) Rooms() []room.Summary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.roomSummaries()
}

// Members returns the sorted usernames in a room and whether it exists.
func (h *Hub) Members(name string) ([]string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[name]
	if !ok {
		return nil, false
	}
	return h.usernames(r), true
}

// ClientCount returns the number of known connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RoomCount returns the number of rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.sessions {
		_ = conn.Close()
	}
	h.sessions = make(map[Conn]*session)
	for _, r := range h.rooms {
		r.members = make(map[Conn]struct{})
	}
}

func (h *Hub) handleConnect(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[conn]; ok {
		return
	}
	h.sessions[conn] = &session{conn: conn}
	h.logger.Debug("Connection opened", "connID", conn.ID())
}

func (h *Hub) handleDisconnect(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[conn]
	if !ok {
		return
	}
	if s.identity != nil && s.identity.InRoom() {
		h.leaveRoom(s)
	}
	delete(h.sessions, conn)
	h.logger.Debug("Connection closed", "connID", conn.ID())
}

// dispatch routes one inbound frame by its type. Malformed frames and unmet
// preconditions are dropped without any reply.
func (h *Hub) dispatch(conn Conn, raw []byte) {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Warn("Discarding malformed message", "connID", conn.ID(), "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[conn]
	if !ok {
		h.logger.Debug("Dropping message from unknown connection", "connID", conn.ID())
		return
	}

	switch msg.Type {
	case TypeRegister:
		h.handleRegister(s, msg.Username)
	case TypeCreateRoom:
		createdBy := ""
		if s.identity != nil {
			createdBy = s.identity.Username
		}
		h.createRoomLocked(msg.RoomName, createdBy)
	case TypeJoin:
		h.handleJoin(s, msg.Room)
	case TypeMessage:
		h.handleMessage(s, msg.Text)
	default:
		h.logger.Warn("Discarding message of unknown type", "connID", conn.ID(), "type", msg.Type)
	}
}

func (h *Hub) handleRegister(s *session, username string) {
	if err := ValidateUsername(username); err != nil {
		h.logger.Debug("Dropping register", "connID", s.conn.ID(), "error", err)
		return
	}

	// Re-registering leaves the current room so membership never dangles.
	if s.identity != nil && s.identity.InRoom() {
		h.leaveRoom(s)
	}
	s.identity = &room.Identity{Username: username}
	h.logger.Info("Connection registered", "connID", s.conn.ID(), "username", username)

	h.sendRoomList(s.conn)
}

func (h *Hub) handleCreateRoom(name, createdBy string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.createRoomLocked(name, createdBy)
}

func (h *Hub) createRoomLocked(name, createdBy string) bool {
	if err := ValidateRoomName(name); err != nil {
		h.logger.Debug("Dropping createRoom", "room", name, "error", err)
		return false
	}
	if _, exists := h.rooms[name]; exists {
		return false
	}

	h.addRoom(name)
	h.logger.Info("Room created", "room", name, "createdBy", createdBy)
	h.broadcastAll(RoomListMessage{Type: TypeRoomList, Rooms: h.roomSummaries()})
	h.publishRoomCreated(name, createdBy)
	return true
}

func (h *Hub) handleJoin(s *session, name string) {
	if s.identity == nil {
		h.logger.Debug("Dropping join from unregistered connection", "connID", s.conn.ID())
		return
	}
	if err := ValidateRoomName(name); err != nil {
		h.logger.Debug("Dropping join", "connID", s.conn.ID(), "error", err)
		return
	}

	if s.identity.InRoom() {
		h.leaveRoom(s)
	}

	r, ok := h.rooms[name]
	if !ok {
		r = h.addRoom(name)
		h.logger.Info("Room created on join", "room", name, "createdBy", s.identity.Username)
		h.publishRoomCreated(name, s.identity.Username)
	}

	r.members[s.conn] = struct{}{}
	s.identity.Room = name
	h.logger.Info("User joined room", "connID", s.conn.ID(), "username", s.identity.Username, "room", name)

	h.broadcastRoom(r, UserListMessage{Type: TypeUserList, Room: name, Users: h.usernames(r)})
	h.broadcastRoom(r, joinedNotice(s.identity.Username))
	if h.publisher != nil {
		h.publisher.UserJoined(events.UserJoinedEvent{
			RoomName:     name,
			ConnectionID: s.conn.ID(),
			Username:     s.identity.Username,
			Timestamp:    h.now(),
		})
	}

	h.sendRoomList(s.conn)
}

func (h *Hub) handleMessage(s *session, text string) {
	if s.identity == nil || !s.identity.InRoom() {
		h.logger.Debug("Dropping message from connection outside any room", "connID", s.conn.ID())
		return
	}
	if err := ValidateMessage(text); err != nil {
		h.logger.Debug("Dropping message", "connID", s.conn.ID(), "error", err)
		return
	}

	r, ok := h.rooms[s.identity.Room]
	if !ok {
		return
	}

	now := h.now()
	h.broadcastRoom(r, ChatMessage{
		Type:     TypeMessage,
		Username: s.identity.Username,
		Text:     text,
		Time:     now.UTC().Format(time.RFC3339),
		Room:     r.name,
	})
	if h.publisher != nil {
		h.publisher.MessageSent(events.MessageSentEvent{
			RoomName:     r.name,
			ConnectionID: s.conn.ID(),
			Username:     s.identity.Username,
			Text:         text,
			Timestamp:    now,
		})
	}
}

// leaveRoom removes s from its current room and tells the remaining members.
// Caller must hold mu.
func (h *Hub) leaveRoom(s *session) {
	name := s.identity.Room
	s.identity.Room = ""

	r, ok := h.rooms[name]
	if !ok {
		return
	}
	delete(r.members, s.conn)
	h.logger.Info("User left room", "connID", s.conn.ID(), "username", s.identity.Username, "room", name)

	h.broadcastRoom(r, UserListMessage{Type: TypeUserList, Room: name, Users: h.usernames(r)})
	h.broadcastRoom(r, leftNotice(s.identity.Username))
	if h.publisher != nil {
		h.publisher.UserLeft(events.UserLeftEvent{
			RoomName:     name,
			ConnectionID: s.conn.ID(),
			Username:     s.identity.Username,
			Timestamp:    h.now(),
		})
	}
}

func (h *Hub) addRoom(name string) *roomState {
	r := &roomState{name: name, members: make(map[Conn]struct{})}
	h.rooms[name] = r
	h.order = append(h.order, name)
	return r
}

func (h *Hub) publishRoomCreated(name, createdBy string) {
	if h.publisher == nil {
		return
	}
	h.publisher.RoomCreated(events.RoomCreatedEvent{
		RoomName:  name,
		CreatedBy: createdBy,
		Timestamp: h.now(),
	})
}

func (h *Hub) roomSummaries() []room.Summary {
	rooms := make([]room.Summary, 0, len(h.order))
	for _, name := range h.order {
		rooms = append(rooms, room.Summary{Name: name, UserCount: len(h.rooms[name].members)})
	}
	return rooms
}

func (h *Hub) usernames(r *roomState) []string {
	users := make([]string, 0, len(r.members))
	for conn := range r.members {
		if s, ok := h.sessions[conn]; ok && s.identity != nil {
			users = append(users, s.identity.Username)
		}
	}
	sort.Strings(users)
	return users
}

func (h *Hub) sendRoomList(conn Conn) {
	data := h.encode(RoomListMessage{Type: TypeRoomList, Rooms: h.roomSummaries()})
	if data != nil {
		h.deliver(conn, data)
	}
}

func (h *Hub) broadcastRoom(r *roomState, payload any) {
	data := h.encode(payload)
	if data == nil {
		return
	}
	for conn := range r.members {
		h.deliver(conn, data)
	}
}

func (h *Hub) broadcastAll(payload any) {
	data := h.encode(payload)
	if data == nil {
		return
	}
	for conn := range h.sessions {
		h.deliver(conn, data)
	}
}

// deliver is a silent no-op for connections that are no longer open.
func (h *Hub) deliver(conn Conn, data []byte) {
	if !conn.Open() {
		return
	}
	if err := conn.Send(data); err != nil {
		h.logger.Debug("Failed to send to connection", "connID", conn.ID(), "error", err)
	}
}

func (h *Hub) encode(payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", "error", err)
		return nil
	}
	return data
}
