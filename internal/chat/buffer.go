package chat

import (
	"github.com/gammazero/deque"

	"realtime-hub/internal/model"
)

// Buffer is an append-only bounded chat tail. When the cap is
// exceeded the oldest entries are dropped from the head. The owning
// room serializes access.
type Buffer struct {
	messages deque.Deque[model.ChatMessage]
	cap      int
}

// NewBuffer creates a buffer that retains at most cap messages.
func NewBuffer(cap int) *Buffer {
	return &Buffer{cap: cap}
}

// Append adds a message, trimming from the head to stay within cap.
func (b *Buffer) Append(msg model.ChatMessage) {
	b.messages.PushBack(msg)
	for b.messages.Len() > b.cap {
		b.messages.PopFront()
	}
}

// Tail returns up to the last n messages, oldest first.
func (b *Buffer) Tail(n int) []model.ChatMessage {
	if n > b.messages.Len() {
		n = b.messages.Len()
	}
	out := make([]model.ChatMessage, 0, n)
	start := b.messages.Len() - n
	for i := start; i < b.messages.Len(); i++ {
		out = append(out, b.messages.At(i))
	}
	return out
}

// Len returns the number of retained messages.
func (b *Buffer) Len() int {
	return b.messages.Len()
}
