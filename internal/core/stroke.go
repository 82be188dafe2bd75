package core

// Point is a canvas-local coordinate. The core never rescales it.
type Point struct {
	X float64
	Y float64
}

// Style describes how a stroke is painted.
type Style struct {
	Color string
	Width float64
}

// Stroke is one line segment drawn by a member. Strokes are immutable once appended.
type Stroke struct {
	Start     Point
	End       Point
	Style     Style
	AuthorID  string
	Timestamp int64 // unix milliseconds
}

// Member is a connection's visible identity inside a room.
type Member struct {
	ConnID      string
	DisplayName string
	Color       string
	Cursor      Point
}
