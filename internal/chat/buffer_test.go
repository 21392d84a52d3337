package chat

import (
	"strconv"
	"testing"

	"realtime-hub/internal/model"
)

func msg(i int) model.ChatMessage {
	return model.ChatMessage{ID: strconv.Itoa(i), UserID: "u1", Text: "m" + strconv.Itoa(i)}
}

func TestAppendAndTail(t *testing.T) {
	b := NewBuffer(10)
	for i := 0; i < 5; i++ {
		b.Append(msg(i))
	}

	tail := b.Tail(3)
	if len(tail) != 3 {
		t.Fatalf("tail len = %d, want 3", len(tail))
	}
	for i, want := range []string{"2", "3", "4"} {
		if tail[i].ID != want {
			t.Errorf("tail[%d] = %s, want %s", i, tail[i].ID, want)
		}
	}
}

func TestCapDropsFromHead(t *testing.T) {
	b := NewBuffer(3)
	for i := 0; i < 5; i++ {
		b.Append(msg(i))
	}

	if b.Len() != 3 {
		t.Fatalf("len = %d, want cap 3", b.Len())
	}
	tail := b.Tail(3)
	if tail[0].ID != "2" {
		t.Errorf("oldest retained = %s, want 2", tail[0].ID)
	}
}

func TestTailLargerThanBuffer(t *testing.T) {
	b := NewBuffer(10)
	b.Append(msg(0))

	tail := b.Tail(100)
	if len(tail) != 1 {
		t.Errorf("tail len = %d, want 1", len(tail))
	}
}

func TestTailOfEmptyBuffer(t *testing.T) {
	b := NewBuffer(10)
	if tail := b.Tail(5); len(tail) != 0 {
		t.Errorf("tail of empty buffer has %d entries", len(tail))
	}
}
