package room

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inklinehq/inkline/backend/internal/palette"
)

func newTestRegistry() *Registry {
	return NewRegistry(palette.New())
}

func TestJoinCreatesRoom(t *testing.T) {
	r := newTestRegistry()

	p := r.Join("demo", "conn-1")
	assert.Equal(t, "conn-1", p.ID)
	assert.NotEmpty(t, p.Color)
	assert.True(t, r.Exists("demo"))
	assert.Equal(t, 1, r.RoomCount())
}

func TestParticipantsJoinOrder(t *testing.T) {
	r := newTestRegistry()

	r.Join("demo", "a")
	r.Join("demo", "b")
	r.Join("demo", "c")

	ps := r.Participants("demo")
	require.Len(t, ps, 3)
	assert.Equal(t, "a", ps[0].ID)
	assert.Equal(t, "b", ps[1].ID)
	assert.Equal(t, "c", ps[2].ID)
}

func TestParticipantsUnknownRoom(t *testing.T) {
	r := newTestRegistry()

	ps := r.Participants("nowhere")
	assert.NotNil(t, ps)
	assert.Empty(t, ps)
}

func TestLeaveDeletesEmptyRoom(t *testing.T) {
	r := newTestRegistry()

	r.Join("demo", "a")
	r.Leave("demo", "a")

	assert.False(t, r.Exists("demo"), "room should be torn down, not merely emptied")
	assert.Empty(t, r.Participants("demo"))
}

func TestLeaveKeepsNonEmptyRoom(t *testing.T) {
	r := newTestRegistry()

	r.Join("demo", "a")
	r.Join("demo", "b")
	r.Leave("demo", "a")

	assert.True(t, r.Exists("demo"))
	ps := r.Participants("demo")
	require.Len(t, ps, 1)
	assert.Equal(t, "b", ps[0].ID)
}

func TestLeaveUnknownIsNoop(t *testing.T) {
	r := newTestRegistry()

	r.Leave("nowhere", "ghost")

	r.Join("demo", "a")
	r.Leave("demo", "ghost")
	assert.True(t, r.Exists("demo"))
	assert.Len(t, r.Participants("demo"), 1)
}

func TestRejoinOverwrites(t *testing.T) {
	r := newTestRegistry()

	first := r.Join("demo", "a")
	second := r.Join("demo", "a")

	ps := r.Participants("demo")
	require.Len(t, ps, 1)
	assert.Equal(t, second.Color, ps[0].Color)
	assert.NotEqual(t, first.Color, second.Color)
}

func TestRoomsAreIndependent(t *testing.T) {
	r := newTestRegistry()

	r.Join("one", "a")
	r.Join("two", "b")
	r.Leave("one", "a")

	assert.False(t, r.Exists("one"))
	assert.True(t, r.Exists("two"))
}

func TestConcurrentJoins(t *testing.T) {
	r := newTestRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Join("demo", fmt.Sprintf("conn-%d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.Participants("demo"), 100)
}
