package room

import (
	"sync"

	"github.com/inklinehq/inkline/backend/internal/palette"
)

// A connected member of a room. Immutable for the connection's lifetime.
type Participant struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

// One collaborative session's membership
type entry struct {
	participants map[string]Participant
	order        []string // participant ids in join order
}

// Tracks which participants are in which room. Rooms are created lazily on
// first join and deleted as soon as the last participant leaves.
type Registry struct {
	rooms  map[string]*entry
	colors *palette.Allocator
	mu     sync.RWMutex
}

// Creates an empty registry drawing colors from the given allocator
func NewRegistry(colors *palette.Allocator) *Registry {
	return &Registry{
		rooms:  make(map[string]*entry),
		colors: colors,
	}
}

// Adds a participant to the room, creating the room if needed, and assigns a
// color. A second join with the same id overwrites the earlier entry; callers
// are expected to join each connection exactly once.
func (r *Registry) Join(roomID, participantID string) Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[roomID]
	if !ok {
		e = &entry{participants: make(map[string]Participant)}
		r.rooms[roomID] = e
	}

	if _, exists := e.participants[participantID]; !exists {
		e.order = append(e.order, participantID)
	}

	p := Participant{ID: participantID, Color: r.colors.Next()}
	e.participants[participantID] = p
	return p
}

// Removes a participant; deletes the room once it is empty. Unknown rooms and
// participants are a no-op.
func (r *Registry) Leave(roomID, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[roomID]
	if !ok {
		return
	}

	if _, exists := e.participants[participantID]; !exists {
		return
	}
	delete(e.participants, participantID)
	for i, id := range e.order {
		if id == participantID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}

	if len(e.participants) == 0 {
		delete(r.rooms, roomID)
	}
}

// Returns the room's participants in join order. Empty for unknown rooms.
func (r *Registry) Participants(roomID string) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.rooms[roomID]
	if !ok {
		return []Participant{}
	}

	out := make([]Participant, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.participants[id])
	}
	return out
}

// Reports whether the room currently exists
func (r *Registry) Exists(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// Returns the number of live rooms
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
