package protocol

import (
	"realtime-hub/internal/model"
)

// JoinPayload room.join 요청 페이로드
type JoinPayload struct {
	RoomID string `json:"roomId"`
}

// StrokePayload carries wb.stroke.start / .move / .end bodies
type StrokePayload struct {
	StrokeID string        `json:"strokeId"`
	Style    model.Style   `json:"style"`
	Points   []model.Point `json:"points"`
}

// PairClaimPayload pair.claim 요청 페이로드
type PairClaimPayload struct {
	PairToken string `json:"pairToken"`
}

// RelayPayload is the minimal view of rtc.offer / rtc.answer / rtc.ice
// bodies. Only the routing field is read; the SDP or candidate body is
// forwarded verbatim from the raw payload.
type RelayPayload struct {
	ToUserID string `json:"toUserId"`
}

// ChatSendPayload chat.message 요청 페이로드
type ChatSendPayload struct {
	Text     string `json:"text"`
	Name     string `json:"name,omitempty"`
	ClientID string `json:"clientId,omitempty"`
}

// HelloPayload greets a freshly accepted connection
type HelloPayload struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// JoinedPayload acknowledges a room.join
type JoinedPayload struct {
	OK bool `json:"ok"`
}

// SnapshotPayload carries the full stroke set of a room
type SnapshotPayload struct {
	Strokes []*model.Stroke `json:"strokes"`
}

// HistoryPayload reports the acting user's undo/redo stack state
type HistoryPayload struct {
	CanUndo   bool `json:"canUndo"`
	CanRedo   bool `json:"canRedo"`
	UndoCount int  `json:"undoCount"`
	RedoCount int  `json:"redoCount"`
}

// StrokeRemovePayload announces an undone stroke
type StrokeRemovePayload struct {
	StrokeID string `json:"strokeId"`
}

// StrokeRestorePayload announces a redone stroke
type StrokeRestorePayload struct {
	Stroke *model.Stroke `json:"stroke"`
}

// PairCreatedPayload returns a freshly minted pair token
type PairCreatedPayload struct {
	PairToken string `json:"pairToken"`
	ExpiresAt int64  `json:"expiresAt"`
}

// PairSuccessPayload is sent to both ends of a completed pairing
type PairSuccessPayload struct {
	MobileUserID string `json:"mobileUserId"`
	WebUserID    string `json:"webUserId"`
}

// PairErrorPayload reports a failed claim
type PairErrorPayload struct {
	Message string `json:"message"`
}

// PeersPayload lists the other members of a room
type PeersPayload struct {
	Peers []string `json:"peers"`
}

// PeerPayload announces a single peer joining or leaving
type PeerPayload struct {
	UserID string `json:"userId"`
}

// ChatHistoryPayload carries the tail of a room's chat buffer
type ChatHistoryPayload struct {
	Messages []model.ChatMessage `json:"messages"`
}
