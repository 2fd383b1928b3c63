package canvas

// A 2-D coordinate in canvas-local space. No unit conversion happens server-side.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Drawing tool selected when a stroke begins
type Tool string

const (
	ToolBrush  Tool = "brush"
	ToolEraser Tool = "eraser"
)

// Captured once at pen-down and immutable for the stroke's lifetime
type StrokeSettings struct {
	Tool  Tool    `json:"tool"`
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// One continuous pen-down-to-pen-up drawing action
type Stroke struct {
	ID       string         `json:"id"`
	Points   []Point        `json:"points"`
	Settings StrokeSettings `json:"settings"`
}

// Reports whether the stroke carries enough points to enter history.
// A single point means no movement occurred, so there is nothing to draw.
func (s Stroke) Committable() bool {
	return len(s.Points) >= 2
}
