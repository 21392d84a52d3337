package hub

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Roles a connection can carry
const (
	RoleWeb    = "web"
	RoleMobile = "mobile"
)

// Client is the per-connection record. UserID is minted by the server
// at accept time and never trusted from payloads. Room and PairedTo
// are owned by the connection's read goroutine; other goroutines only
// ever touch the Send queue.
type Client struct {
	UserID   string
	Role     string
	Conn     *websocket.Conn
	Send     chan []byte
	Room     *Room
	PairedTo string

	closeOnce sync.Once
}

// TrySend enqueues an outbound frame without blocking. A client whose
// queue is full is too slow to keep up and gets disconnected rather
// than stall the room's writer.
func (c *Client) TrySend(data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		log.Printf("[Client %s] Send queue full, disconnecting", c.UserID)
		c.Close()
		return false
	}
}

// Close shuts the send queue down exactly once. The write pump drains
// and closes the socket; the read loop then unwinds and cleans up.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// writePump owns all writes to the socket. Frames come off the Send
// queue in order, so delivery to one recipient preserves commit order.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
