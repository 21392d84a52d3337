package hub

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"realtime-hub/internal/chat"
	"realtime-hub/internal/model"
	"realtime-hub/internal/pairing"
	"realtime-hub/internal/protocol"
	"realtime-hub/internal/whiteboard"
)

// Room is one collaboration context: its connected clients, the
// whiteboard board, and the chat tail. Every operation locks the room
// for its full duration, so no two operations on the same room ever
// interleave and every recipient observes the same commit order.
type Room struct {
	ID      string
	clients map[string]*Client
	board   *whiteboard.Board
	chat    *chat.Buffer

	mu      sync.Mutex
	removed bool
	hub     *Hub
}

// join registers the client and plays the join sequence: the ack, the
// current peer list, the joined broadcast, the whiteboard snapshot,
// the caller's history, and the chat tail. Returns false when the room
// was concurrently dropped; the caller fetches a fresh one.
func (r *Room) join(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.removed {
		return false
	}

	peers := make([]string, 0, len(r.clients))
	for userID := range r.clients {
		peers = append(peers, userID)
	}
	r.clients[c.UserID] = c

	r.unicast(c, protocol.TypeRoomJoined, protocol.JoinedPayload{OK: true})
	r.unicast(c, protocol.TypeRTCPeers, protocol.PeersPayload{Peers: peers})
	r.broadcast(protocol.TypeRTCPeerJoined, c.UserID, protocol.PeerPayload{UserID: c.UserID}, c.UserID)
	r.unicast(c, protocol.TypeWBSnapshot, protocol.SnapshotPayload{Strokes: r.board.Snapshot()})
	r.sendHistory(c)
	r.unicast(c, protocol.TypeChatHistory, protocol.ChatHistoryPayload{
		Messages: r.chat.Tail(r.hub.chatHistoryLimit),
	})

	log.Printf("[Room %s] %s joined as %s (total: %d)", r.ID, c.UserID, c.Role, len(r.clients))
	return true
}

// leave removes the client and announces the departure. An emptied
// room is flushed and dropped from the registry.
func (r *Room) leave(c *Client) {
	r.mu.Lock()
	if _, ok := r.clients[c.UserID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.clients, c.UserID)
	r.broadcast(protocol.TypeRTCPeerLeft, c.UserID, protocol.PeerPayload{UserID: c.UserID}, "")
	empty := len(r.clients) == 0
	remaining := len(r.clients)
	r.mu.Unlock()

	log.Printf("[Room %s] %s left (remaining: %d)", r.ID, c.UserID, remaining)
	if empty {
		r.hub.dropIfEmpty(r)
	}
}

// =============================================================================
// Whiteboard
// =============================================================================

// StrokeStart commits a new stroke. A strokeId the board has already
// seen degrades to a move; otherwise the caller becomes the author,
// their undo stack grows and their redo stack is invalidated.
func (r *Room) StrokeStart(c *Client, p *protocol.StrokePayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.board.Start(c.UserID, p.StrokeID, p.Style, p.Points)
	if started {
		r.sendHistory(c)
	}
	r.broadcast(protocol.TypeWBStrokeStart, c.UserID, p, "")
	r.scheduleSave()
}

// StrokeMove appends points to an existing stroke. The incoming style
// wins; the author never changes.
func (r *Room) StrokeMove(c *Client, p *protocol.StrokePayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.board.Move(p.StrokeID, p.Style, p.Points) {
		return
	}
	r.broadcast(protocol.TypeWBStrokeMove, c.UserID, p, "")
	r.scheduleSave()
}

// StrokeEnd is advisory: it is fanned out so peers can finalize their
// rendering, but later moves for the same stroke still append.
func (r *Room) StrokeEnd(c *Client, p *protocol.StrokePayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcast(protocol.TypeWBStrokeEnd, c.UserID, p, "")
}

// Clear wipes the board and every user's stacks. Not undoable.
func (r *Room) Clear(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.board.Clear()
	r.broadcast(protocol.TypeWBClear, c.UserID, struct{}{}, "")
	r.sendHistory(c)
	r.scheduleSave()
}

// SnapshotRequest answers with the current stroke set.
func (r *Room) SnapshotRequest(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unicast(c, protocol.TypeWBSnapshot, protocol.SnapshotPayload{Strokes: r.board.Snapshot()})
}

// Undo removes the caller's most recent surviving stroke.
func (r *Room) Undo(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stroke, ok := r.board.Undo(c.UserID)
	if !ok {
		return
	}
	r.broadcast(protocol.TypeWBStrokeRemove, c.UserID, protocol.StrokeRemovePayload{StrokeID: stroke.StrokeID}, "")
	r.sendHistory(c)
	r.scheduleSave()
}

// Redo reinstates the stroke the caller's last undo removed.
func (r *Room) Redo(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stroke, ok := r.board.Redo(c.UserID)
	if !ok {
		return
	}
	r.broadcast(protocol.TypeWBStrokeRestore, c.UserID, protocol.StrokeRestorePayload{Stroke: stroke}, "")
	r.sendHistory(c)
	r.scheduleSave()
}

// =============================================================================
// Cursor / signaling / chat
// =============================================================================

// Cursor fans the caller's cursor position out to everyone else.
// Positions are transient; nothing is recorded.
func (r *Room) Cursor(c *Client, env *protocol.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcastRaw(protocol.TypeCursorMove, c.UserID, env.Payload, c.UserID)
}

// Relay forwards an rtc.offer / rtc.answer / rtc.ice envelope to the
// addressed peer. The SDP or candidate body is opaque and forwarded
// byte-for-byte; an absent target is a normal transient condition.
func (r *Room) Relay(c *Client, env *protocol.Envelope) {
	var p protocol.RelayPayload
	if err := env.Bind(&p); err != nil || p.ToUserID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.clients[p.ToUserID]
	if !ok {
		return
	}
	data, err := protocol.Encode(env.Type, r.ID, c.UserID, env.Payload)
	if err != nil {
		log.Printf("[Room %s] Encode failed for %s: %v", r.ID, env.Type, err)
		return
	}
	target.TrySend(data)
}

// Chat mints a message from the caller's payload and fans it out,
// sender included. Blank messages are dropped.
func (r *Room) Chat(c *Client, p *protocol.ChatSendPayload) {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return
	}

	msg := model.ChatMessage{
		ID:       uuid.New().String(),
		UserID:   c.UserID,
		Name:     p.Name,
		Text:     text,
		Ts:       time.Now().UnixMilli(),
		ClientID: p.ClientID,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.chat.Append(msg)
	r.broadcast(protocol.TypeChatMessage, c.UserID, msg, "")
}

// ChatHistory answers with the tail of the room's chat buffer.
func (r *Room) ChatHistory(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unicast(c, protocol.TypeChatHistory, protocol.ChatHistoryPayload{
		Messages: r.chat.Tail(r.hub.chatHistoryLimit),
	})
}

// =============================================================================
// Pairing
// =============================================================================

// PairCreate mints a token binding this room to the calling web user.
func (r *Room) PairCreate(c *Client) {
	t := r.hub.pairing.Create(r.ID, c.UserID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.unicast(c, protocol.TypePairCreated, protocol.PairCreatedPayload{
		PairToken: t.Value,
		ExpiresAt: t.ExpiresAt.UnixMilli(),
	})
}

// PairClaim redeems a token for the calling mobile client. Success is
// announced to both the mobile and, when still connected, the web
// client that minted the token.
func (r *Room) PairClaim(c *Client, value string) {
	t, result := r.hub.pairing.Claim(value, r.ID)

	r.mu.Lock()
	defer r.mu.Unlock()

	switch result {
	case pairing.ClaimNotFound:
		r.unicast(c, protocol.TypePairError, protocol.PairErrorPayload{Message: "Invalid or expired token"})
	case pairing.ClaimWrongRoom:
		r.unicast(c, protocol.TypePairError, protocol.PairErrorPayload{Message: "Token is for a different room"})
	case pairing.ClaimOK:
		c.PairedTo = t.WebUserID
		success := protocol.PairSuccessPayload{
			MobileUserID: c.UserID,
			WebUserID:    t.WebUserID,
		}
		r.unicast(c, protocol.TypePairSuccess, success)
		if web, ok := r.clients[t.WebUserID]; ok {
			r.unicast(web, protocol.TypePairSuccess, success)
		}
		log.Printf("[Room %s] Paired mobile %s to web %s", r.ID, c.UserID, t.WebUserID)
	}
}

// =============================================================================
// Internals (caller holds r.mu)
// =============================================================================

func (r *Room) unicast(c *Client, msgType string, payload any) {
	data, err := protocol.Encode(msgType, r.ID, c.UserID, payload)
	if err != nil {
		log.Printf("[Room %s] Encode failed for %s: %v", r.ID, msgType, err)
		return
	}
	c.TrySend(data)
}

// broadcast fans a frame out to the room. userID stamps the actor;
// except, when non-empty, skips that member.
func (r *Room) broadcast(msgType, userID string, payload any, except string) {
	data, err := protocol.Encode(msgType, r.ID, userID, payload)
	if err != nil {
		log.Printf("[Room %s] Encode failed for %s: %v", r.ID, msgType, err)
		return
	}
	for id, member := range r.clients {
		if except != "" && id == except {
			continue
		}
		member.TrySend(data)
	}
}

// broadcastRaw is broadcast for payloads that must travel untouched.
func (r *Room) broadcastRaw(msgType, userID string, payload []byte, except string) {
	var body any
	if len(payload) > 0 {
		body = json.RawMessage(payload)
	}
	data, err := protocol.Encode(msgType, r.ID, userID, body)
	if err != nil {
		log.Printf("[Room %s] Encode failed for %s: %v", r.ID, msgType, err)
		return
	}
	for id, member := range r.clients {
		if except != "" && id == except {
			continue
		}
		member.TrySend(data)
	}
}

func (r *Room) sendHistory(c *Client) {
	canUndo, canRedo, undoCount, redoCount := r.board.History(c.UserID)
	r.unicast(c, protocol.TypeWBHistory, protocol.HistoryPayload{
		CanUndo:   canUndo,
		CanRedo:   canRedo,
		UndoCount: undoCount,
		RedoCount: redoCount,
	})
}

// scheduleSave queues a debounced write. The snapshot closure runs
// when the window fires and re-locks the room, so it captures the
// state current at write time.
func (r *Room) scheduleSave() {
	r.hub.store.Schedule(r.ID, func() []*model.Stroke {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.board.Snapshot()
	})
}
