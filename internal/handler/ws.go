package handler

import (
	"log"

	"github.com/gofiber/contrib/websocket"

	"realtime-hub/internal/hub"
	"realtime-hub/internal/protocol"
)

// WSHandler terminates WebSocket connections and dispatches decoded
// envelopes onto the hub.
type WSHandler struct {
	hub          *hub.Hub
	maxFrameSize int
}

// NewWSHandler creates a handler bound to the given hub.
func NewWSHandler(h *hub.Hub, maxFrameSize int) *WSHandler {
	return &WSHandler{hub: h, maxFrameSize: maxFrameSize}
}

// HandleWebSocket runs one connection's read loop. The role was
// stashed in Locals by the upgrade middleware. Malformed frames are
// dropped without a reply; only a transport error ends the session.
func (h *WSHandler) HandleWebSocket(conn *websocket.Conn) {
	role, _ := conn.Locals("role").(string)
	c := h.hub.NewClient(conn, role)
	defer h.hub.Disconnect(c)

	conn.SetReadLimit(int64(h.maxFrameSize))

	data, err := protocol.Encode(protocol.TypeHello, "", c.UserID, protocol.HelloPayload{
		UserID: c.UserID,
		Role:   c.Role,
	})
	if err != nil {
		log.Printf("[WS %s] Encode hello failed: %v", c.UserID, err)
		return
	}
	c.TrySend(data)
	log.Printf("[WS %s] Connected (role: %s)", c.UserID, c.Role)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS %s] Read error: %v", c.UserID, err)
			}
			break
		}
		env, err := protocol.Decode(raw)
		if err != nil {
			continue
		}
		h.dispatch(c, env)
	}
	log.Printf("[WS %s] Disconnected", c.UserID)
}

// dispatch routes one envelope. Before the first room.join only the
// join itself is meaningful; everything else is silently ignored.
func (h *WSHandler) dispatch(c *hub.Client, env *protocol.Envelope) {
	if env.Type == protocol.TypeRoomJoin {
		var p protocol.JoinPayload
		if err := env.Bind(&p); err != nil || p.RoomID == "" {
			return
		}
		h.hub.Join(c, p.RoomID)
		return
	}

	r := c.Room
	if r == nil {
		return
	}

	switch env.Type {
	case protocol.TypeWBStrokeStart:
		var p protocol.StrokePayload
		if err := env.Bind(&p); err != nil || p.StrokeID == "" {
			return
		}
		r.StrokeStart(c, &p)

	case protocol.TypeWBStrokeMove:
		var p protocol.StrokePayload
		if err := env.Bind(&p); err != nil || p.StrokeID == "" {
			return
		}
		r.StrokeMove(c, &p)

	case protocol.TypeWBStrokeEnd:
		var p protocol.StrokePayload
		if err := env.Bind(&p); err != nil || p.StrokeID == "" {
			return
		}
		r.StrokeEnd(c, &p)

	case protocol.TypeWBClear:
		r.Clear(c)

	case protocol.TypeWBUndo:
		r.Undo(c)

	case protocol.TypeWBRedo:
		r.Redo(c)

	case protocol.TypeWBSnapshotReq:
		r.SnapshotRequest(c)

	case protocol.TypeCursorMove:
		r.Cursor(c, env)

	case protocol.TypeRTCOffer, protocol.TypeRTCAnswer, protocol.TypeRTCIce:
		r.Relay(c, env)

	case protocol.TypeChatMessage:
		var p protocol.ChatSendPayload
		if err := env.Bind(&p); err != nil {
			return
		}
		r.Chat(c, &p)

	case protocol.TypeChatHistoryReq:
		r.ChatHistory(c)

	case protocol.TypePairCreate:
		if c.Role != hub.RoleWeb {
			return
		}
		r.PairCreate(c)

	case protocol.TypePairClaim:
		if c.Role != hub.RoleMobile {
			return
		}
		var p protocol.PairClaimPayload
		if err := env.Bind(&p); err != nil || p.PairToken == "" {
			return
		}
		r.PairClaim(c, p.PairToken)
	}
}
