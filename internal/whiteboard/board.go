package whiteboard

import (
	"github.com/gammazero/deque"

	"realtime-hub/internal/model"
)

// Board holds the authoritative stroke state of one room together with
// the per-user undo/redo stacks. It performs no I/O and takes no locks;
// the owning room serializes every call.
type Board struct {
	strokes map[string]*model.Stroke
	order   []string // strokeIds in insertion order
	undo    map[string]*deque.Deque[string]
	redo    map[string]*deque.Deque[*model.Stroke]
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{
		strokes: make(map[string]*model.Stroke),
		undo:    make(map[string]*deque.Deque[string]),
		redo:    make(map[string]*deque.Deque[*model.Stroke]),
	}
}

// Bootstrap replaces the stroke set with a persisted snapshot.
// Undo/redo stacks stay empty regardless of what was loaded.
func (b *Board) Bootstrap(strokes []*model.Stroke) {
	b.strokes = make(map[string]*model.Stroke, len(strokes))
	b.order = b.order[:0]
	for _, s := range strokes {
		if s == nil || s.StrokeID == "" {
			continue
		}
		if _, exists := b.strokes[s.StrokeID]; exists {
			continue
		}
		b.strokes[s.StrokeID] = s.Clone()
		b.order = append(b.order, s.StrokeID)
	}
}

func (b *Board) undoStack(userID string) *deque.Deque[string] {
	stack, ok := b.undo[userID]
	if !ok {
		stack = new(deque.Deque[string])
		b.undo[userID] = stack
	}
	return stack
}

func (b *Board) redoStack(userID string) *deque.Deque[*model.Stroke] {
	stack, ok := b.redo[userID]
	if !ok {
		stack = new(deque.Deque[*model.Stroke])
		b.redo[userID] = stack
	}
	return stack
}

// Start begins a new stroke authored by userID. A strokeId that is
// already present degrades to a move, matching what a client resending
// a start frame expects. Returns true when a new stroke was created.
func (b *Board) Start(userID, strokeID string, style model.Style, points []model.Point) bool {
	if strokeID == "" {
		return false
	}
	if _, exists := b.strokes[strokeID]; exists {
		b.Move(strokeID, style, points)
		return false
	}

	pts := make([]model.Point, len(points))
	copy(pts, points)
	b.strokes[strokeID] = &model.Stroke{
		StrokeID: strokeID,
		UserID:   userID,
		Style:    style,
		Points:   pts,
	}
	b.order = append(b.order, strokeID)

	b.undoStack(userID).PushBack(strokeID)
	// 새 획이 시작되면 redo 스택은 무효
	if stack, ok := b.redo[userID]; ok {
		stack.Clear()
	}
	return true
}

// Move appends points to an existing stroke and replaces its style
// with the latest one. The author never changes; any user's move lands
// in the original author's stroke. Returns false for unknown strokes.
func (b *Board) Move(strokeID string, style model.Style, points []model.Point) bool {
	stroke, exists := b.strokes[strokeID]
	if !exists {
		return false
	}
	stroke.Style = style
	stroke.Points = append(stroke.Points, points...)
	return true
}

// Clear wipes the stroke set and every user's undo/redo stacks.
// A clear is not itself undoable.
func (b *Board) Clear() {
	b.strokes = make(map[string]*model.Stroke)
	b.order = b.order[:0]
	b.undo = make(map[string]*deque.Deque[string])
	b.redo = make(map[string]*deque.Deque[*model.Stroke])
}

// Undo pops the caller's undo stack until it finds a stroke that still
// exists and is authored by the caller; stale entries are discarded on
// the way. The removed stroke value lands on the redo stack.
func (b *Board) Undo(userID string) (*model.Stroke, bool) {
	stack, ok := b.undo[userID]
	if !ok {
		return nil, false
	}
	for stack.Len() > 0 {
		strokeID := stack.PopBack()
		stroke, exists := b.strokes[strokeID]
		if !exists || stroke.UserID != userID {
			continue
		}
		delete(b.strokes, strokeID)
		b.removeFromOrder(strokeID)
		b.redoStack(userID).PushBack(stroke)
		return stroke, true
	}
	return nil, false
}

// Redo reinstates the most recently undone stroke of the caller with
// the exact value the matching undo removed.
func (b *Board) Redo(userID string) (*model.Stroke, bool) {
	stack, ok := b.redo[userID]
	if !ok || stack.Len() == 0 {
		return nil, false
	}
	stroke := stack.PopBack()
	b.strokes[stroke.StrokeID] = stroke
	b.order = append(b.order, stroke.StrokeID)
	b.undoStack(userID).PushBack(stroke.StrokeID)
	return stroke, true
}

// Snapshot returns the current stroke set in insertion order.
func (b *Board) Snapshot() []*model.Stroke {
	strokes := make([]*model.Stroke, 0, len(b.strokes))
	for _, strokeID := range b.order {
		if stroke, ok := b.strokes[strokeID]; ok {
			strokes = append(strokes, stroke.Clone())
		}
	}
	return strokes
}

// History reports the raw stack sizes for one user. Stale undo entries
// are only discarded when an undo actually walks past them.
func (b *Board) History(userID string) (canUndo, canRedo bool, undoCount, redoCount int) {
	if stack, ok := b.undo[userID]; ok {
		undoCount = stack.Len()
	}
	if stack, ok := b.redo[userID]; ok {
		redoCount = stack.Len()
	}
	return undoCount > 0, redoCount > 0, undoCount, redoCount
}

// Stroke returns the stroke with the given id, if present.
func (b *Board) Stroke(strokeID string) (*model.Stroke, bool) {
	stroke, ok := b.strokes[strokeID]
	return stroke, ok
}

// Size returns the number of strokes on the board.
func (b *Board) Size() int {
	return len(b.strokes)
}

func (b *Board) removeFromOrder(strokeID string) {
	for i, id := range b.order {
		if id == strokeID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			return
		}
	}
}
