package ws

import (
	"log/slog"
	"sync"

	"github.com/inklinehq/inkline/backend/internal/canvas"
	"github.com/inklinehq/inkline/backend/internal/cursor"
	"github.com/inklinehq/inkline/backend/internal/history"
	"github.com/inklinehq/inkline/backend/internal/protocol"
	"github.com/inklinehq/inkline/backend/internal/room"
)

// A connected participant as the hub sees it. Send must not block: it enqueues
// the frame and reports an error when the client cannot keep up, at which
// point the hub closes the connection and lets the normal disconnect path run.
type Conn interface {
	ID() string
	Send(frame []byte) error
	Close() error
}

// One room's live connections. The mutex serializes every event touching the
// room, so history mutations and their snapshot broadcasts happen in one
// atomic step and a stale snapshot can never overtake a fresher one.
type session struct {
	members map[string]Conn
	closed  bool
	mu      sync.Mutex
}

// Coordinates all room traffic: joins, departures, live relays and history
// mutations. Events for the same room are serialized through the room's
// session lock; events for different rooms run in parallel.
type Hub struct {
	registry *room.Registry
	history  *history.Store
	cursors  *cursor.Tracker
	logger   *slog.Logger

	sessions    map[string]*session
	memberships map[string]string // connection id -> room id
	mu          sync.RWMutex
}

func NewHub(registry *room.Registry, store *history.Store, cursors *cursor.Tracker, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		registry:    registry,
		history:     store,
		cursors:     cursors,
		logger:      logger,
		sessions:    make(map[string]*session),
		memberships: make(map[string]string),
	}
}

// Adds the connection to the room, creating it on first join. The joiner
// receives the history snapshot and its own identity before anyone can relay
// live events to it; then the whole room (joiner included) gets the fresh
// participant list. Joining a new room while already in one leaves the old
// room first, departure broadcasts included.
func (h *Hub) Join(c Conn, roomID string) {
	if roomID == "" {
		roomID = "default"
	}

	if prev, ok := h.memberOf(c.ID()); ok && prev != roomID {
		h.leaveRoom(c, prev)
	}

	var s *session
	for {
		s = h.getOrCreateSession(roomID)
		s.mu.Lock()
		if !s.closed {
			break
		}
		// Lost a race with teardown; the next lookup recreates the session
		s.mu.Unlock()
	}

	p := h.registry.Join(roomID, c.ID())

	h.mu.Lock()
	h.memberships[c.ID()] = roomID
	h.mu.Unlock()

	var failed []Conn

	// Snapshot first: the joiner must hold the base history before any live
	// segment can reach it
	if frame, err := protocol.EncodeHistoryUpdate(h.history.Snapshot(roomID)); err == nil {
		failed = appendFailed(failed, c, frame)
	} else {
		h.logger.Error("encode history snapshot", "room", roomID, "error", err)
	}
	if frame, err := protocol.Encode(protocol.EventUserMe, p); err == nil {
		failed = appendFailed(failed, c, frame)
	} else {
		h.logger.Error("encode user:me", "room", roomID, "error", err)
	}

	s.members[c.ID()] = c

	if frame, err := protocol.EncodeRoomUsers(h.registry.Participants(roomID)); err == nil {
		failed = append(failed, broadcast(s, frame, "")...)
	} else {
		h.logger.Error("encode room:users", "room", roomID, "error", err)
	}

	count := len(s.members)
	s.mu.Unlock()

	h.logger.Info("participant joined", "room", roomID, "participantId", c.ID(), "clients", count)
	evict(failed)
}

// Records the participant's cursor position and relays it to everyone else in
// the room. At-most-once: a dropped frame is corrected by the next move.
func (h *Hub) CursorMove(c Conn, msg protocol.CursorMove) {
	s := h.lookup(msg.RoomID)
	if s == nil {
		return
	}

	s.mu.Lock()
	if _, ok := s.members[c.ID()]; !ok {
		s.mu.Unlock()
		return
	}

	h.cursors.Update(msg.RoomID, c.ID(), msg.Cursor)

	var failed []Conn
	if frame, err := protocol.Encode(protocol.EventCursorMove, protocol.CursorBroadcast{
		ParticipantID: c.ID(),
		Cursor:        msg.Cursor,
	}); err == nil {
		failed = broadcast(s, frame, c.ID())
	}
	s.mu.Unlock()

	evict(failed)
}

// Relays one in-progress stroke segment to everyone else in the room. Nothing
// is persisted here; committed history only changes on stroke:end.
func (h *Hub) DrawMove(c Conn, msg protocol.DrawMove) {
	s := h.lookup(msg.RoomID)
	if s == nil {
		return
	}

	s.mu.Lock()
	if _, ok := s.members[c.ID()]; !ok {
		s.mu.Unlock()
		return
	}

	var failed []Conn
	if frame, err := protocol.Encode(protocol.EventDrawMove, protocol.DrawBroadcast{
		From:     msg.From,
		To:       msg.To,
		Settings: msg.Settings,
	}); err == nil {
		failed = broadcast(s, frame, c.ID())
	}
	s.mu.Unlock()

	evict(failed)
}

// Commits the finished stroke and pushes the canonical history to the whole
// room, sender included, so locally drawn state reconciles against the server.
func (h *Hub) StrokeEnd(c Conn, msg protocol.StrokeEnd) {
	h.mutateHistory(c, msg.RoomID, func() {
		h.history.Commit(msg.RoomID, msg.Stroke)
	})
}

// Undoes the room's most recent stroke. Global: any participant may undo
// anyone's stroke.
func (h *Hub) Undo(c Conn, msg protocol.HistoryUndo) {
	h.mutateHistory(c, msg.RoomID, func() {
		h.history.Undo(msg.RoomID)
	})
}

// Restores the room's most recently undone stroke
func (h *Hub) Redo(c Conn, msg protocol.HistoryRedo) {
	h.mutateHistory(c, msg.RoomID, func() {
		h.history.Redo(msg.RoomID)
	})
}

// Runs a history mutation and broadcasts the resulting snapshot to all members
// within the same serialized step
func (h *Hub) mutateHistory(c Conn, roomID string, mutate func()) {
	s := h.lookup(roomID)
	if s == nil {
		return
	}

	s.mu.Lock()
	if _, ok := s.members[c.ID()]; !ok {
		s.mu.Unlock()
		return
	}

	mutate()

	var failed []Conn
	if frame, err := protocol.EncodeHistoryUpdate(h.history.Snapshot(roomID)); err == nil {
		failed = broadcast(s, frame, "")
	} else {
		h.logger.Error("encode history snapshot", "room", roomID, "error", err)
	}
	s.mu.Unlock()

	evict(failed)
}

// Removes the connection from its room, if any. Remaining members get the
// updated participant list and a cursor removal notice; an emptied room is
// torn down entirely. Transport failures funnel through here too.
func (h *Hub) Disconnect(c Conn) {
	roomID, ok := h.memberOf(c.ID())
	if !ok {
		return
	}
	h.leaveRoom(c, roomID)
}

func (h *Hub) leaveRoom(c Conn, roomID string) {
	h.mu.Lock()
	delete(h.memberships, c.ID())
	s := h.sessions[roomID]
	h.mu.Unlock()

	if s == nil {
		return
	}

	s.mu.Lock()
	if _, ok := s.members[c.ID()]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.members, c.ID())

	h.registry.Leave(roomID, c.ID())
	h.cursors.Remove(roomID, c.ID())

	var failed []Conn
	if len(s.members) == 0 {
		s.closed = true
		h.mu.Lock()
		delete(h.sessions, roomID)
		h.mu.Unlock()
		h.history.Drop(roomID)
		h.cursors.DropRoom(roomID)
		h.logger.Info("room closed", "room", roomID)
	} else {
		if frame, err := protocol.EncodeRoomUsers(h.registry.Participants(roomID)); err == nil {
			failed = broadcast(s, frame, "")
		}
		if frame, err := protocol.Encode(protocol.EventCursorRemove, protocol.CursorRemove{
			ParticipantID: c.ID(),
		}); err == nil {
			failed = append(failed, broadcast(s, frame, "")...)
		}
	}
	remaining := len(s.members)
	s.mu.Unlock()

	h.logger.Info("participant left", "room", roomID, "participantId", c.ID(), "remaining", remaining)
	evict(failed)
}

// Returns a read-only cursor snapshot for the room
func (h *Hub) Cursors(roomID string) map[string]canvas.Point {
	return h.cursors.All(roomID)
}

// Stats for the HTTP surface

func (h *Hub) GetRoomCount() int {
	return h.registry.RoomCount()
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.memberships)
}

// Returns the live rooms with their participant counts
func (h *Hub) GetActiveRooms() map[string]int {
	// Snapshot the session pointers first; session locks are always taken
	// before the hub lock on the event paths
	h.mu.RLock()
	live := make(map[string]*session, len(h.sessions))
	for id, s := range h.sessions {
		live[id] = s
	}
	h.mu.RUnlock()

	out := make(map[string]int, len(live))
	for id, s := range live {
		s.mu.Lock()
		if !s.closed {
			out[id] = len(s.members)
		}
		s.mu.Unlock()
	}
	return out
}

func (h *Hub) GetStrokeCount(roomID string) int {
	return h.history.StrokeCount(roomID)
}

func (h *Hub) getOrCreateSession(roomID string) *session {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[roomID]
	if !ok {
		s = &session{members: make(map[string]Conn)}
		h.sessions[roomID] = s
	}
	return s
}

func (h *Hub) lookup(roomID string) *session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[roomID]
}

func (h *Hub) memberOf(connID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	roomID, ok := h.memberships[connID]
	return roomID, ok
}

// Sends the frame to every member except the one named by except (empty means
// everyone). Callers must hold s.mu. Returns the connections that could not
// keep up so the caller can close them after releasing the lock.
func broadcast(s *session, frame []byte, except string) []Conn {
	var failed []Conn
	for id, conn := range s.members {
		if id == except {
			continue
		}
		failed = appendFailed(failed, conn, frame)
	}
	return failed
}

func appendFailed(failed []Conn, c Conn, frame []byte) []Conn {
	if err := c.Send(frame); err != nil {
		return append(failed, c)
	}
	return failed
}

// Closing the transport lets the connection's own read loop run the normal
// disconnect cleanup
func evict(conns []Conn) {
	for _, c := range conns {
		c.Close()
	}
}
