package hub

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"realtime-hub/internal/chat"
	"realtime-hub/internal/pairing"
	"realtime-hub/internal/store"
	"realtime-hub/internal/token"
	"realtime-hub/internal/whiteboard"
)

const userIDLength = 10

// Hub owns the room registry and the shared services rooms reach for.
// Lock order is always hub.mu before room.mu, never the reverse.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	store   *store.Store
	pairing *pairing.Registry

	sendQueueSize    int
	chatBufferCap    int
	chatHistoryLimit int
}

// NewHub creates a hub backed by the given persistence store and
// pairing registry.
func NewHub(st *store.Store, pr *pairing.Registry, sendQueueSize, chatBufferCap, chatHistoryLimit int) *Hub {
	return &Hub{
		rooms:            make(map[string]*Room),
		store:            st,
		pairing:          pr,
		sendQueueSize:    sendQueueSize,
		chatBufferCap:    chatBufferCap,
		chatHistoryLimit: chatHistoryLimit,
	}
}

// NewClient mints a connection record with a server-assigned user id
// and starts its write pump. Unknown roles fall back to web.
func (h *Hub) NewClient(conn *websocket.Conn, role string) *Client {
	if role != RoleMobile {
		role = RoleWeb
	}
	c := &Client{
		UserID: token.New(userIDLength),
		Role:   role,
		Conn:   conn,
		Send:   make(chan []byte, h.sendQueueSize),
	}
	go c.writePump()
	return c
}

// getOrCreateRoom returns the live room for id, creating and
// bootstrapping it from disk when absent.
func (h *Hub) getOrCreateRoom(id string) *Room {
	h.mu.RLock()
	r, ok := h.rooms[id]
	h.mu.RUnlock()
	if ok {
		return r
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok = h.rooms[id]; ok {
		return r
	}

	board := whiteboard.NewBoard()
	if strokes := h.store.Load(id); len(strokes) > 0 {
		board.Bootstrap(strokes)
		log.Printf("[Hub] Restored room %s with %d stroke(s)", id, len(strokes))
	}
	r = &Room{
		ID:      id,
		clients: make(map[string]*Client),
		board:   board,
		chat:    chat.NewBuffer(h.chatBufferCap),
		hub:     h,
	}
	h.rooms[id] = r
	log.Printf("[Hub] Room %s created (total: %d)", id, len(h.rooms))
	return r
}

// Join places the client in roomID, leaving any current room first.
// The loop absorbs the race where a fetched room empties and is
// dropped before join runs.
func (h *Hub) Join(c *Client, roomID string) {
	if c.Room != nil {
		if c.Room.ID == roomID {
			return
		}
		c.Room.leave(c)
		c.Room = nil
	}
	for {
		r := h.getOrCreateRoom(roomID)
		if r.join(c) {
			c.Room = r
			return
		}
	}
}

// Disconnect tears the client down: it leaves its room (if any) and
// the send queue is shut so the write pump closes the socket.
func (h *Hub) Disconnect(c *Client) {
	if c.Room != nil {
		c.Room.leave(c)
		c.Room = nil
	}
	c.Close()
}

// dropIfEmpty removes an emptied room from the registry and flushes
// its board to disk. The removed flag makes any join that raced the
// drop retry against a fresh room.
func (h *Hub) dropIfEmpty(r *Room) {
	h.mu.Lock()
	r.mu.Lock()
	if len(r.clients) > 0 || r.removed {
		r.mu.Unlock()
		h.mu.Unlock()
		return
	}
	r.removed = true
	snapshot := r.board.Snapshot()
	r.mu.Unlock()
	delete(h.rooms, r.ID)
	remaining := len(h.rooms)
	h.mu.Unlock()

	h.store.Save(r.ID, snapshot)
	h.store.Forget(r.ID)
	log.Printf("[Hub] Room %s dropped (total: %d)", r.ID, remaining)
}

// RoomCount returns the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// FlushAll synchronously persists every live room's board. Called on
// shutdown after the listener stops accepting.
func (h *Hub) FlushAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		r.mu.Lock()
		snapshot := r.board.Snapshot()
		r.mu.Unlock()
		h.store.Save(r.ID, snapshot)
	}
	if len(rooms) > 0 {
		log.Printf("[Hub] Flushed %d room(s)", len(rooms))
	}
}
