package palette

import (
	"sync"
)

// The default participant colors, picked to stay distinguishable on a white canvas
var DefaultColors = []string{
	"#1e90ff",
	"#ff1744",
	"#00e676",
	"#ffc400",
	"#7c4dff",
	"#ff6d00",
}

// Hands out colors from a fixed palette in round-robin order.
// Uniqueness across participants is not guaranteed once the palette wraps.
type Allocator struct {
	colors []string
	next   int
	mu     sync.Mutex
}

// Creates an allocator over the given colors; falls back to DefaultColors when empty
func New(colors ...string) *Allocator {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	return &Allocator{colors: colors}
}

// Returns the next color in the cycle
func (a *Allocator) Next() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	color := a.colors[a.next%len(a.colors)]
	a.next++
	return color
}
