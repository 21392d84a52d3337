package protocol

import (
	"encoding/json"
	"errors"
	"strings"
)

// Version 현재 프로토콜 버전
const Version = 1

// Message types exchanged over the wire
const (
	TypeHello           = "hello"
	TypeRoomJoin        = "room.join"
	TypeRoomJoined      = "room.joined"
	TypeWBSnapshotReq   = "wb.snapshot.request"
	TypeWBSnapshot      = "wb.snapshot"
	TypeWBStrokeStart   = "wb.stroke.start"
	TypeWBStrokeMove    = "wb.stroke.move"
	TypeWBStrokeEnd     = "wb.stroke.end"
	TypeWBClear         = "wb.clear"
	TypeWBStrokeRemove  = "wb.stroke.remove"
	TypeWBStrokeRestore = "wb.stroke.restore"
	TypeWBUndo          = "wb.undo"
	TypeWBRedo          = "wb.redo"
	TypeWBHistory       = "wb.history"
	TypePairCreate      = "pair.create"
	TypePairCreated     = "pair.created"
	TypePairClaim       = "pair.claim"
	TypePairSuccess     = "pair.success"
	TypePairError       = "pair.error"
	TypeRTCPeers        = "rtc.peers"
	TypeRTCPeerJoined   = "rtc.peer.joined"
	TypeRTCPeerLeft     = "rtc.peer.left"
	TypeRTCOffer        = "rtc.offer"
	TypeRTCAnswer       = "rtc.answer"
	TypeRTCIce          = "rtc.ice"
	TypeCursorMove      = "cursor.move"
	TypeChatMessage     = "chat.message"
	TypeChatHistoryReq  = "chat.history.request"
	TypeChatHistory     = "chat.history"
)

var (
	ErrBadVersion = errors.New("unsupported protocol version")
	ErrBadType    = errors.New("missing message type")
)

// Envelope is the uniform JSON wrapper for every message. Payload is
// kept raw so relayed frames are forwarded byte-for-byte.
type Envelope struct {
	V         int             `json:"v"`
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	RoomID    string          `json:"roomId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Decode parses an inbound frame. Frames that are not a JSON object,
// carry the wrong version, or have an empty type are rejected; the
// caller drops them without replying.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.V != Version {
		return nil, ErrBadVersion
	}
	if strings.TrimSpace(env.Type) == "" {
		return nil, ErrBadType
	}
	return &env, nil
}

// Bind unmarshals the envelope payload into a typed struct. A missing
// payload leaves the target zero-valued.
func (e *Envelope) Bind(out any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, out)
}

// Encode builds an outbound frame. Outbound frames always carry the
// current protocol version.
func Encode(msgType, roomID, userID string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(&Envelope{
		V:       Version,
		Type:    msgType,
		RoomID:  roomID,
		UserID:  userID,
		Payload: raw,
	})
}
