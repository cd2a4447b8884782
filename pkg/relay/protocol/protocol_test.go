package protocol

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestEncodeClientOffer(t *testing.T) {
	encoded, err := EncodeClientOffer("v=0\r\no=- 0 0 IN IP4 0.0.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("offer is not valid base64: %v", err)
	}
	var envelope map[string]string
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("offer is not a JSON envelope: %v", err)
	}
	if envelope["type"] != "offer" {
		t.Fatalf("expected type offer, got %q", envelope["type"])
	}
	if envelope["sdp"] != "v=0\r\no=- 0 0 IN IP4 0.0.0.0" {
		t.Fatalf("sdp was not preserved: %q", envelope["sdp"])
	}
}

func TestDecodeServerSDPPassesRawThrough(t *testing.T) {
	raw := "v=0\r\no=- 42 2 IN IP4 127.0.0.1"
	got, err := DecodeServerSDP(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != raw {
		t.Fatalf("raw sdp was modified: %q", got)
	}
}

func TestDecodeServerSDPDecodesBase64(t *testing.T) {
	answer := "v=0\r\na=answer"
	got, err := DecodeServerSDP(base64.StdEncoding.EncodeToString([]byte(answer)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != answer {
		t.Fatalf("expected %q, got %q", answer, got)
	}
}

func TestDecodeServerSDPRejectsGarbage(t *testing.T) {
	if _, err := DecodeServerSDP("%%% not sdp, not base64 %%%"); err == nil {
		t.Fatal("expected error for undecodable payload")
	}
}

func TestNewUserMessageItem(t *testing.T) {
	item := NewUserMessageItem("Hello")
	if item.Type != "message" || item.Role != "user" {
		t.Fatalf("unexpected item shape: %+v", item)
	}
	if len(item.Content) != 1 || item.Content[0].Type != "input_text" || item.Content[0].Text != "Hello" {
		t.Fatalf("unexpected content: %+v", item.Content)
	}
}

func TestNewFunctionCallOutputItemEchoesCallID(t *testing.T) {
	item := NewFunctionCallOutputItem("call_abc123", "result text")
	if item.Type != "function_call_output" {
		t.Fatalf("unexpected type %q", item.Type)
	}
	if item.CallID != "call_abc123" {
		t.Fatalf("call id was not echoed verbatim: %q", item.CallID)
	}
	if item.Output != "result text" {
		t.Fatalf("unexpected output %q", item.Output)
	}
}

func TestSessionUpdateMarshalsEnvelope(t *testing.T) {
	msg := SessionUpdate{
		EventID: "evt_1",
		Type:    TypeSessionUpdate,
		Session: SessionConfig{Instructions: "be brief", Modalities: []string{"text", "audio"}},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["event_id"] != "evt_1" || decoded["type"] != "session.update" {
		t.Fatalf("missing envelope fields: %v", decoded)
	}
}

func TestNewResponseCreateRequestsTextAndAudio(t *testing.T) {
	msg := NewResponseCreate("evt_2")
	if msg.Type != TypeResponseCreate {
		t.Fatalf("unexpected type %q", msg.Type)
	}
	if len(msg.Response.Modalities) != 2 || msg.Response.Modalities[0] != "text" || msg.Response.Modalities[1] != "audio" {
		t.Fatalf("unexpected modalities: %v", msg.Response.Modalities)
	}
}

func TestGenericEventPreservesPayload(t *testing.T) {
	payload := json.RawMessage(`{"type":"rate_limits.updated","limits":[{"name":"requests"}]}`)
	ev := GenericEvent{Type: EventGeneric, Payload: payload}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "event" {
		t.Fatalf("expected type event, got %q", decoded.Type)
	}
	if string(decoded.Payload) != string(payload) {
		t.Fatalf("payload was not preserved: %s", decoded.Payload)
	}
}
