package history

import (
	"sync"

	"github.com/inklinehq/inkline/backend/internal/canvas"
)

// Undo/redo state for a single room: the committed strokes plus the strokes
// undone since the last commit
type state struct {
	committed []canvas.Stroke
	redo      []canvas.Stroke
}

// Holds each room's committed stroke history and redo buffer. The undo/redo
// stack is shared by the whole room: any participant may undo anyone's last
// stroke. Unknown room ids get empty state on first access.
type Store struct {
	rooms map[string]*state
	mu    sync.RWMutex
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*state)}
}

func (s *Store) get(roomID string) *state {
	st, ok := s.rooms[roomID]
	if !ok {
		st = &state{}
		s.rooms[roomID] = st
	}
	return st
}

// Appends a stroke to the room's history and clears the redo buffer. Strokes
// with fewer than two points are dropped silently: a single point means the
// pointer never moved.
func (s *Store) Commit(roomID string, stroke canvas.Stroke) {
	if !stroke.Committable() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(roomID)
	st.committed = append(st.committed, stroke)
	st.redo = nil
}

// Moves the most recent committed stroke onto the redo buffer. No-op when
// there is nothing to undo.
func (s *Store) Undo(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(roomID)
	if len(st.committed) == 0 {
		return
	}
	last := st.committed[len(st.committed)-1]
	st.committed = st.committed[:len(st.committed)-1]
	st.redo = append(st.redo, last)
}

// Moves the most recently undone stroke back onto the committed history.
// No-op when the redo buffer is empty.
func (s *Store) Redo(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.get(roomID)
	if len(st.redo) == 0 {
		return
	}
	last := st.redo[len(st.redo)-1]
	st.redo = st.redo[:len(st.redo)-1]
	st.committed = append(st.committed, last)
}

// Returns the committed strokes in commit order, sufficient to redraw the
// canvas from empty. Always non-nil.
func (s *Store) Snapshot(roomID string) []canvas.Stroke {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.rooms[roomID]
	if !ok {
		return []canvas.Stroke{}
	}

	// Copy so callers never observe later mutations
	out := make([]canvas.Stroke, len(st.committed))
	copy(out, st.committed)
	return out
}

// Returns the number of committed strokes without copying
func (s *Store) StrokeCount(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.rooms[roomID]
	if !ok {
		return 0
	}
	return len(st.committed)
}

// Removes all history for the room; called when the room is torn down
func (s *Store) Drop(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}
