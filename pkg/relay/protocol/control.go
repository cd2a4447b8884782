// Package protocol defines the JSON control envelopes exchanged with the
// upstream voice-live endpoint and the normalized event vocabulary delivered
// to clients. Every upstream message is `{event_id, type, ...}` sent as a
// single text frame.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Upstream control message types.
const (
	TypeSessionUpdate          = "session.update"
	TypeConversationItemCreate = "conversation.item.create"
	TypeResponseCreate         = "response.create"
	TypeInputAudioAppend       = "input_audio_buffer.append"
	TypeInputAudioCommit       = "input_audio_buffer.commit"
	TypeInputAudioClear        = "input_audio_buffer.clear"
	TypeAvatarConnect          = "session.avatar.connect"
)

// rawSDPPrefix marks a session description that is already in raw form and
// must not be base64-decoded.
const rawSDPPrefix = "v=0"

// VoiceConfig selects the synthesis voice for the session.
type VoiceConfig struct {
	Name        string  `json:"name"`
	Type        string  `json:"type,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// AvatarVideoParams shapes the negotiated avatar video stream.
type AvatarVideoParams struct {
	Codec   string `json:"codec,omitempty"`
	Bitrate int    `json:"bitrate,omitempty"`
}

// AvatarConfig selects the talking-avatar character for the session.
type AvatarConfig struct {
	Character  string             `json:"character"`
	Style      string             `json:"style,omitempty"`
	Customized bool               `json:"customized,omitempty"`
	Video      *AvatarVideoParams `json:"video,omitempty"`
}

// TurnDetection configures server-side end-of-turn detection.
type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMS   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMS int     `json:"silence_duration_ms,omitempty"`
}

// AudioTranscription configures transcription of user input audio.
type AudioTranscription struct {
	Model string `json:"model"`
}

// NoiseReduction configures input audio noise reduction.
type NoiseReduction struct {
	Type string `json:"type"`
}

// ToolSchema is a function-tool definition advertised in the session
// configuration.
type ToolSchema struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// SessionConfig is the body of the initial session.update message.
type SessionConfig struct {
	Instructions            string              `json:"instructions,omitempty"`
	Modalities              []string            `json:"modalities,omitempty"`
	Voice                   *VoiceConfig        `json:"voice,omitempty"`
	Avatar                  *AvatarConfig       `json:"avatar,omitempty"`
	Tools                   []ToolSchema        `json:"tools,omitempty"`
	ToolChoice              string              `json:"tool_choice,omitempty"`
	InputAudioTranscription *AudioTranscription `json:"input_audio_transcription,omitempty"`
	InputAudioNoiseReduct   *NoiseReduction     `json:"input_audio_noise_reduction,omitempty"`
	TurnDetection           *TurnDetection      `json:"turn_detection,omitempty"`
}

// SessionUpdate carries the session configuration control message.
type SessionUpdate struct {
	EventID string        `json:"event_id"`
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

// ContentPart is one piece of a conversation item body.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ConversationItem is a turn or function-call output placed into the
// conversation.
type ConversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	Output  string        `json:"output,omitempty"`
}

// ConversationItemCreate inserts an item into the conversation.
type ConversationItemCreate struct {
	EventID string           `json:"event_id"`
	Type    string           `json:"type"`
	Item    ConversationItem `json:"item"`
}

// NewUserMessageItem builds a user text turn.
func NewUserMessageItem(text string) ConversationItem {
	return ConversationItem{
		Type:    "message",
		Role:    "user",
		Content: []ContentPart{{Type: "input_text", Text: text}},
	}
}

// NewFunctionCallOutputItem builds a function-call result item echoing the
// upstream correlation id verbatim.
func NewFunctionCallOutputItem(callID, output string) ConversationItem {
	return ConversationItem{
		Type:   "function_call_output",
		CallID: callID,
		Output: output,
	}
}

// ResponseParams requests assistant output modalities.
type ResponseParams struct {
	Modalities []string `json:"modalities"`
}

// ResponseCreate asks the upstream model for a new assistant turn.
type ResponseCreate struct {
	EventID  string         `json:"event_id"`
	Type     string         `json:"type"`
	Response ResponseParams `json:"response"`
}

// NewResponseCreate requests a text+audio assistant turn.
func NewResponseCreate(eventID string) ResponseCreate {
	return ResponseCreate{
		EventID:  eventID,
		Type:     TypeResponseCreate,
		Response: ResponseParams{Modalities: []string{"text", "audio"}},
	}
}

// InputAudioAppend appends a base64 PCM16 chunk to the input buffer.
type InputAudioAppend struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Audio   string `json:"audio"`
}

// InputAudioControl commits or clears the input audio buffer.
type InputAudioControl struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
}

// AvatarConnect requests avatar media negotiation with the client's offer.
type AvatarConnect struct {
	EventID   string `json:"event_id"`
	Type      string `json:"type"`
	ClientSDP string `json:"client_sdp"`
}

// EncodeClientOffer wraps a client session-description offer in the JSON
// envelope the upstream expects and base64-encodes it.
func EncodeClientOffer(offerSDP string) (string, error) {
	envelope, err := json.Marshal(map[string]string{"type": "offer", "sdp": offerSDP})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(envelope), nil
}

// DecodeServerSDP decodes the server answer from the avatar negotiation
// event. Answers already in raw session-description form are passed through
// unchanged; anything else is treated as base64.
func DecodeServerSDP(serverSDP string) (string, error) {
	if strings.HasPrefix(serverSDP, rawSDPPrefix) {
		return serverSDP, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(serverSDP)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
