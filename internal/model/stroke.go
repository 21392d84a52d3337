package model

// Point is a single sample of a stroke polyline. Coordinates are
// normalized to the canvas; t is the client capture time in millis.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	T int64   `json:"t"`
}

// Style describes how a stroke is rendered
type Style struct {
	Tool    string  `json:"tool"`
	Color   string  `json:"color"`
	Width   float64 `json:"width"`
	Opacity float64 `json:"opacity"`
}

// Stroke is the authoritative form of a whiteboard stroke.
// StrokeID is chosen by the client; UserID is stamped by the server
// at first sighting and never changes afterwards.
type Stroke struct {
	StrokeID string  `json:"strokeId"`
	UserID   string  `json:"userId"`
	Style    Style   `json:"style"`
	Points   []Point `json:"points"`
}

// Clone returns a deep copy so undo/redo can hold the exact value
// that was removed from the board.
func (s *Stroke) Clone() *Stroke {
	points := make([]Point, len(s.Points))
	copy(points, s.Points)
	return &Stroke{
		StrokeID: s.StrokeID,
		UserID:   s.UserID,
		Style:    s.Style,
		Points:   points,
	}
}
