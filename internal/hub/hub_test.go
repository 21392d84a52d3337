package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"realtime-hub/internal/pairing"
	"realtime-hub/internal/protocol"
	"realtime-hub/internal/store"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	st, err := store.New(t.TempDir(), time.Millisecond)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	pr := pairing.NewRegistry(clock.NewMock(), 2*time.Minute, time.Hour)
	t.Cleanup(pr.Stop)
	return NewHub(st, pr, 64, 200, 100)
}

// newTestClient builds a connection record whose write pump never
// runs; tests read frames straight off the Send queue.
func newTestClient(userID, role string) *Client {
	return &Client{
		UserID: userID,
		Role:   role,
		Send:   make(chan []byte, 64),
	}
}

// drain empties the client's queue and returns the decoded envelopes.
func drain(t *testing.T, c *Client) []*protocol.Envelope {
	t.Helper()
	var out []*protocol.Envelope
	for {
		select {
		case data := <-c.Send:
			env, err := protocol.Decode(data)
			if err != nil {
				t.Fatalf("queued frame does not decode: %v", err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func types(envs []*protocol.Envelope) []string {
	out := make([]string, 0, len(envs))
	for _, e := range envs {
		out = append(out, e.Type)
	}
	return out
}

func find(envs []*protocol.Envelope, msgType string) *protocol.Envelope {
	for _, e := range envs {
		if e.Type == msgType {
			return e
		}
	}
	return nil
}

func TestJoinSequence(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient("u1", RoleWeb)

	h.Join(c, "room1")

	got := types(drain(t, c))
	want := []string{
		protocol.TypeRoomJoined,
		protocol.TypeRTCPeers,
		protocol.TypeWBSnapshot,
		protocol.TypeWBHistory,
		protocol.TypeChatHistory,
	}
	if len(got) != len(want) {
		t.Fatalf("join sequence = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("join sequence = %v, want %v", got, want)
		}
	}
}

func TestJoinAnnouncesToPeers(t *testing.T) {
	h := newTestHub(t)
	first := newTestClient("u1", RoleWeb)
	second := newTestClient("u2", RoleWeb)

	h.Join(first, "room1")
	drain(t, first)
	h.Join(second, "room1")

	envs := drain(t, first)
	joined := find(envs, protocol.TypeRTCPeerJoined)
	if joined == nil {
		t.Fatalf("first client saw %v, want rtc.peer.joined", types(envs))
	}
	var p protocol.PeerPayload
	if err := joined.Bind(&p); err != nil || p.UserID != "u2" {
		t.Errorf("peer.joined payload = %+v", p)
	}

	peers := find(drain(t, second), protocol.TypeRTCPeers)
	if peers == nil {
		t.Fatal("second client got no peer list")
	}
	var pl protocol.PeersPayload
	if err := peers.Bind(&pl); err != nil || len(pl.Peers) != 1 || pl.Peers[0] != "u1" {
		t.Errorf("peer list = %+v, want [u1]", pl.Peers)
	}
}

func TestJoinSecondRoomLeavesFirst(t *testing.T) {
	h := newTestHub(t)
	mover := newTestClient("u1", RoleWeb)
	witness := newTestClient("u2", RoleWeb)

	h.Join(mover, "room1")
	h.Join(witness, "room1")
	drain(t, witness)

	h.Join(mover, "room2")

	if mover.Room == nil || mover.Room.ID != "room2" {
		t.Fatal("client not moved to room2")
	}
	if find(drain(t, witness), protocol.TypeRTCPeerLeft) == nil {
		t.Error("old room never saw the departure")
	}
}

func TestRejoinSameRoomIsNoop(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient("u1", RoleWeb)

	h.Join(c, "room1")
	drain(t, c)
	h.Join(c, "room1")

	if envs := drain(t, c); len(envs) != 0 {
		t.Errorf("re-join of current room emitted %v", types(envs))
	}
}

func TestStrokeStartFansOutAndUpdatesHistory(t *testing.T) {
	h := newTestHub(t)
	author := newTestClient("u1", RoleWeb)
	peer := newTestClient("u2", RoleWeb)
	h.Join(author, "room1")
	h.Join(peer, "room1")
	drain(t, author)
	drain(t, peer)

	author.Room.StrokeStart(author, &protocol.StrokePayload{StrokeID: "s1"})

	authorEnvs := drain(t, author)
	if find(authorEnvs, protocol.TypeWBStrokeStart) == nil {
		t.Error("author missing own stroke.start echo")
	}
	hist := find(authorEnvs, protocol.TypeWBHistory)
	if hist == nil {
		t.Fatal("author got no history update")
	}
	var hp protocol.HistoryPayload
	if err := hist.Bind(&hp); err != nil || !hp.CanUndo || hp.UndoCount != 1 {
		t.Errorf("history = %+v, want canUndo with one entry", hp)
	}
	if find(drain(t, peer), protocol.TypeWBStrokeStart) == nil {
		t.Error("peer missing stroke.start")
	}
}

func TestUndoBroadcastsRemove(t *testing.T) {
	h := newTestHub(t)
	author := newTestClient("u1", RoleWeb)
	peer := newTestClient("u2", RoleWeb)
	h.Join(author, "room1")
	h.Join(peer, "room1")
	author.Room.StrokeStart(author, &protocol.StrokePayload{StrokeID: "s1"})
	drain(t, author)
	drain(t, peer)

	author.Room.Undo(author)

	rm := find(drain(t, peer), protocol.TypeWBStrokeRemove)
	if rm == nil {
		t.Fatal("peer missing stroke.remove")
	}
	var p protocol.StrokeRemovePayload
	if err := rm.Bind(&p); err != nil || p.StrokeID != "s1" {
		t.Errorf("remove payload = %+v, want s1", p)
	}

	author.Room.Redo(author)
	if find(drain(t, peer), protocol.TypeWBStrokeRestore) == nil {
		t.Error("peer missing stroke.restore after redo")
	}
}

func TestUndoWithEmptyStackIsSilent(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient("u1", RoleWeb)
	h.Join(c, "room1")
	drain(t, c)

	c.Room.Undo(c)

	if envs := drain(t, c); len(envs) != 0 {
		t.Errorf("empty undo emitted %v", types(envs))
	}
}

func TestChatFanOutIncludesSender(t *testing.T) {
	h := newTestHub(t)
	sender := newTestClient("u1", RoleWeb)
	peer := newTestClient("u2", RoleWeb)
	h.Join(sender, "room1")
	h.Join(peer, "room1")
	drain(t, sender)
	drain(t, peer)

	sender.Room.Chat(sender, &protocol.ChatSendPayload{Text: "  hello  ", ClientID: "c1"})

	msg := find(drain(t, sender), protocol.TypeChatMessage)
	if msg == nil {
		t.Fatal("sender missing own chat echo")
	}
	var body map[string]any
	if err := json.Unmarshal(msg.Payload, &body); err != nil {
		t.Fatal(err)
	}
	if body["text"] != "hello" {
		t.Errorf("text = %v, want trimmed hello", body["text"])
	}
	if body["clientId"] != "c1" {
		t.Errorf("clientId = %v, want c1", body["clientId"])
	}
	if find(drain(t, peer), protocol.TypeChatMessage) == nil {
		t.Error("peer missing chat message")
	}
}

func TestBlankChatDropped(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient("u1", RoleWeb)
	h.Join(c, "room1")
	drain(t, c)

	c.Room.Chat(c, &protocol.ChatSendPayload{Text: "   "})

	if envs := drain(t, c); len(envs) != 0 {
		t.Errorf("blank chat emitted %v", types(envs))
	}
}

func TestRelayReachesOnlyTarget(t *testing.T) {
	h := newTestHub(t)
	caller := newTestClient("u1", RoleWeb)
	target := newTestClient("u2", RoleWeb)
	bystander := newTestClient("u3", RoleWeb)
	h.Join(caller, "room1")
	h.Join(target, "room1")
	h.Join(bystander, "room1")
	drain(t, caller)
	drain(t, target)
	drain(t, bystander)

	payload, _ := json.Marshal(map[string]any{"toUserId": "u2", "sdp": "blob"})
	env := &protocol.Envelope{V: protocol.Version, Type: protocol.TypeRTCOffer, Payload: payload}
	caller.Room.Relay(caller, env)

	offer := find(drain(t, target), protocol.TypeRTCOffer)
	if offer == nil {
		t.Fatal("target missing relayed offer")
	}
	var body map[string]any
	if err := json.Unmarshal(offer.Payload, &body); err != nil {
		t.Fatal(err)
	}
	if body["sdp"] != "blob" {
		t.Error("sdp body not forwarded byte-for-byte")
	}
	if offer.UserID != "u1" {
		t.Errorf("relayed frame stamped %q, want sender u1", offer.UserID)
	}
	if envs := drain(t, bystander); len(envs) != 0 {
		t.Errorf("bystander received %v", types(envs))
	}
}

func TestRelayToAbsentPeerIsSilent(t *testing.T) {
	h := newTestHub(t)
	caller := newTestClient("u1", RoleWeb)
	h.Join(caller, "room1")
	drain(t, caller)

	payload, _ := json.Marshal(map[string]string{"toUserId": "ghost"})
	caller.Room.Relay(caller, &protocol.Envelope{V: protocol.Version, Type: protocol.TypeRTCIce, Payload: payload})

	if envs := drain(t, caller); len(envs) != 0 {
		t.Errorf("relay to absent peer emitted %v", types(envs))
	}
}

func TestPairCreateAndClaim(t *testing.T) {
	h := newTestHub(t)
	web := newTestClient("web1", RoleWeb)
	mobile := newTestClient("mob1", RoleMobile)
	h.Join(web, "room1")
	h.Join(mobile, "room1")
	drain(t, web)
	drain(t, mobile)

	web.Room.PairCreate(web)
	created := find(drain(t, web), protocol.TypePairCreated)
	if created == nil {
		t.Fatal("web client got no pair.created")
	}
	var cp protocol.PairCreatedPayload
	if err := created.Bind(&cp); err != nil || cp.PairToken == "" {
		t.Fatalf("pair.created payload = %+v", cp)
	}

	mobile.Room.PairClaim(mobile, cp.PairToken)

	var sp protocol.PairSuccessPayload
	success := find(drain(t, mobile), protocol.TypePairSuccess)
	if success == nil {
		t.Fatal("mobile got no pair.success")
	}
	if err := success.Bind(&sp); err != nil || sp.WebUserID != "web1" || sp.MobileUserID != "mob1" {
		t.Errorf("pair.success = %+v", sp)
	}
	if mobile.PairedTo != "web1" {
		t.Errorf("PairedTo = %q, want web1", mobile.PairedTo)
	}
	if find(drain(t, web), protocol.TypePairSuccess) == nil {
		t.Error("web side never learned about the claim")
	}
}

func TestPairClaimBadToken(t *testing.T) {
	h := newTestHub(t)
	mobile := newTestClient("mob1", RoleMobile)
	h.Join(mobile, "room1")
	drain(t, mobile)

	mobile.Room.PairClaim(mobile, "bogus")

	if find(drain(t, mobile), protocol.TypePairError) == nil {
		t.Error("bad token produced no pair.error")
	}
}

func TestPairClaimWrongRoom(t *testing.T) {
	h := newTestHub(t)
	web := newTestClient("web1", RoleWeb)
	mobile := newTestClient("mob1", RoleMobile)
	h.Join(web, "room1")
	h.Join(mobile, "room2")
	drain(t, web)
	drain(t, mobile)

	web.Room.PairCreate(web)
	var cp protocol.PairCreatedPayload
	find(drain(t, web), protocol.TypePairCreated).Bind(&cp)

	mobile.Room.PairClaim(mobile, cp.PairToken)

	if find(drain(t, mobile), protocol.TypePairError) == nil {
		t.Error("cross-room claim produced no pair.error")
	}
	if mobile.PairedTo != "" {
		t.Error("cross-room claim still paired the client")
	}
}

func TestLastLeaveDropsAndPersistsRoom(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient("u1", RoleWeb)
	h.Join(c, "room1")
	c.Room.StrokeStart(c, &protocol.StrokePayload{StrokeID: "s1"})

	room := c.Room
	h.Disconnect(c)

	if h.RoomCount() != 0 {
		t.Errorf("room count = %d after last leave, want 0", h.RoomCount())
	}
	if strokes := h.store.Load("room1"); len(strokes) != 1 {
		t.Errorf("persisted %d strokes on drop, want 1", len(strokes))
	}

	// a fresh join must get a fresh room bootstrapped from disk
	again := newTestClient("u2", RoleWeb)
	h.Join(again, "room1")
	if again.Room == room {
		t.Error("dropped room instance was revived")
	}
	snap := find(drain(t, again), protocol.TypeWBSnapshot)
	var p protocol.SnapshotPayload
	if err := snap.Bind(&p); err != nil || len(p.Strokes) != 1 {
		t.Errorf("restored snapshot = %+v, want the persisted stroke", p)
	}
}

func TestChatDoesNotSurviveRoomDrop(t *testing.T) {
	h := newTestHub(t)
	c := newTestClient("u1", RoleWeb)
	h.Join(c, "room1")
	c.Room.Chat(c, &protocol.ChatSendPayload{Text: "hello"})
	h.Disconnect(c)

	again := newTestClient("u2", RoleWeb)
	h.Join(again, "room1")
	hist := find(drain(t, again), protocol.TypeChatHistory)
	var p protocol.ChatHistoryPayload
	if err := hist.Bind(&p); err != nil || len(p.Messages) != 0 {
		t.Errorf("chat history after drop = %+v, want empty", p.Messages)
	}
}

func TestSlowClientIsDisconnected(t *testing.T) {
	c := &Client{UserID: "slow", Role: RoleWeb, Send: make(chan []byte, 1)}

	if !c.TrySend([]byte("one")) {
		t.Fatal("first send should fit the queue")
	}
	if c.TrySend([]byte("two")) {
		t.Fatal("second send should overflow")
	}

	// queue was closed; the pending frame drains, then the channel
	// reports closed
	<-c.Send
	if _, ok := <-c.Send; ok {
		t.Error("send queue still open after overflow")
	}
}
