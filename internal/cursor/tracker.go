package cursor

import (
	"sync"

	"github.com/inklinehq/inkline/backend/internal/canvas"
)

// Remembers each participant's last-known pointer position per room. Purely
// ephemeral presence state: never persisted, never replayed to joiners.
type Tracker struct {
	rooms map[string]map[string]canvas.Point
	mu    sync.RWMutex
}

func NewTracker() *Tracker {
	return &Tracker{rooms: make(map[string]map[string]canvas.Point)}
}

// Upserts the participant's last-known position. Coordinates are not range
// checked; the canvas is whatever the clients say it is.
func (t *Tracker) Update(roomID, participantID string, p canvas.Point) {
	t.mu.Lock()
	defer t.mu.Unlock()

	positions, ok := t.rooms[roomID]
	if !ok {
		positions = make(map[string]canvas.Point)
		t.rooms[roomID] = positions
	}
	positions[participantID] = p
}

// Deletes the participant's entry so a stale cursor is not rendered forever
func (t *Tracker) Remove(roomID, participantID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	positions, ok := t.rooms[roomID]
	if !ok {
		return
	}
	delete(positions, participantID)
	if len(positions) == 0 {
		delete(t.rooms, roomID)
	}
}

// Returns a copy of the room's cursor positions keyed by participant id
func (t *Tracker) All(roomID string) map[string]canvas.Point {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]canvas.Point)
	for id, p := range t.rooms[roomID] {
		out[id] = p
	}
	return out
}

// Removes every entry for the room; called when the room is torn down
func (t *Tracker) DropRoom(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rooms, roomID)
}
