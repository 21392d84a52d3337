package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeValidEnvelope(t *testing.T) {
	raw := []byte(`{"v":1,"type":"room.join","payload":{"roomId":"r1"}}`)

	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Type != TypeRoomJoin {
		t.Errorf("type = %q, want room.join", env.Type)
	}

	var p JoinPayload
	if err := env.Bind(&p); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if p.RoomID != "r1" {
		t.Errorf("roomId = %q, want r1", p.RoomID)
	}
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	_, err := Decode([]byte(`{"v":2,"type":"room.join"}`))
	if !errors.Is(err, ErrBadVersion) {
		t.Errorf("err = %v, want ErrBadVersion", err)
	}
}

func TestDecodeRejectsMissingType(t *testing.T) {
	for _, raw := range []string{`{"v":1}`, `{"v":1,"type":"  "}`} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrBadType) {
			t.Errorf("Decode(%s) err = %v, want ErrBadType", raw, err)
		}
	}
}

func TestDecodeRejectsNonJSON(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("Decode of malformed input succeeded")
	}
}

func TestBindEmptyPayload(t *testing.T) {
	env := &Envelope{V: Version, Type: TypeWBUndo}
	var p StrokePayload
	if err := env.Bind(&p); err != nil {
		t.Errorf("Bind of absent payload: %v", err)
	}
	if p.StrokeID != "" {
		t.Errorf("payload not zero-valued: %+v", p)
	}
}

func TestEncodeStampsVersion(t *testing.T) {
	data, err := Encode(TypeChatMessage, "r1", "u1", map[string]string{"text": "hi"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	env, err := Decode(data)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if env.V != Version || env.RoomID != "r1" || env.UserID != "u1" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestEncodeNilPayloadOmitsField(t *testing.T) {
	data, err := Encode(TypeWBClear, "r1", "u1", nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["payload"]; ok {
		t.Error("nil payload serialized instead of omitted")
	}
}

func TestRelayPayloadSurvivesByteForByte(t *testing.T) {
	// Unknown payload fields must be preserved through decode so the
	// relay can forward SDP blobs untouched.
	raw := []byte(`{"v":1,"type":"rtc.offer","payload":{"toUserId":"u2","sdp":{"weird":"blob"}}}`)

	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var p RelayPayload
	if err := env.Bind(&p); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if p.ToUserID != "u2" {
		t.Errorf("toUserId = %q, want u2", p.ToUserID)
	}

	out, err := Encode(env.Type, "r1", "u1", env.Payload)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	reenc, _ := Decode(out)
	var body map[string]any
	if err := json.Unmarshal(reenc.Payload, &body); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["sdp"]; !ok {
		t.Error("opaque sdp field lost in the relay round trip")
	}
}
