package protocol

import "encoding/json"

// Upstream server event types the receive loop recognizes.
const (
	ServerTypeError                  = "error"
	ServerTypeAudioDelta             = "response.audio.delta"
	ServerTypeAudioDone              = "response.audio.done"
	ServerTypeTranscriptDelta        = "response.audio_transcript.delta"
	ServerTypeTranscriptDone         = "response.audio_transcript.done"
	ServerTypeInputTranscriptionDone = "conversation.item.input_audio_transcription.completed"
	ServerTypeSpeechStarted          = "input_audio_buffer.speech_started"
	ServerTypeSpeechStopped          = "input_audio_buffer.speech_stopped"
	ServerTypeInputAudioCommitted    = "input_audio_buffer.committed"
	ServerTypeAvatarConnecting       = "session.avatar.connecting"
	ServerTypeResponseDone           = "response.done"
)

// Normalized client event types.
const (
	EventError                 = "error"
	EventAssistantAudioDelta   = "assistant_audio_delta"
	EventAssistantAudioDone    = "assistant_audio_done"
	EventTranscriptDelta       = "assistant_transcript_delta"
	EventTranscriptDone        = "assistant_transcript_done"
	EventUserTranscript        = "user_transcript_completed"
	EventSpeechStarted         = "speech_started"
	EventSpeechStopped         = "speech_stopped"
	EventInputAudioCommitted   = "input_audio_committed"
	EventAvatarConnecting      = "avatar_connecting"
	EventFunctionCallCompleted = "function_call_completed"
	EventResponseStatus        = "response_status"
	EventGeneric               = "event"
)

// ClientEvent is one normalized event delivered to the client transport.
// Concrete variants marshal to `{type: string, ...fields}`.
type ClientEvent interface {
	EventType() string
}

// ErrorEvent carries an upstream or transport error payload.
type ErrorEvent struct {
	Type    string          `json:"type"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (ErrorEvent) EventType() string { return EventError }

// NewErrorEvent builds an error event from a message and optional raw payload.
func NewErrorEvent(message string, payload json.RawMessage) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message, Payload: payload}
}

// AssistantAudioDeltaEvent carries one base64 PCM16 chunk of synthesized
// assistant speech.
type AssistantAudioDeltaEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
}

func (AssistantAudioDeltaEvent) EventType() string { return EventAssistantAudioDelta }

// AssistantAudioDoneEvent marks the end of the assistant audio stream for the
// current turn.
type AssistantAudioDoneEvent struct {
	Type string `json:"type"`
}

func (AssistantAudioDoneEvent) EventType() string { return EventAssistantAudioDone }

// TranscriptDeltaEvent carries an incremental piece of the assistant's spoken
// transcript.
type TranscriptDeltaEvent struct {
	Type   string `json:"type"`
	Delta  string `json:"delta"`
	ItemID string `json:"item_id"`
}

func (TranscriptDeltaEvent) EventType() string { return EventTranscriptDelta }

// TranscriptDoneEvent carries the complete assistant transcript for a turn.
type TranscriptDoneEvent struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	ItemID     string `json:"item_id"`
}

func (TranscriptDoneEvent) EventType() string { return EventTranscriptDone }

// UserTranscriptEvent carries the completed transcription of user input audio.
type UserTranscriptEvent struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript"`
	ItemID     string `json:"item_id,omitempty"`
}

func (UserTranscriptEvent) EventType() string { return EventUserTranscript }

// SpeechStartedEvent signals detected start of user speech.
type SpeechStartedEvent struct {
	Type string `json:"type"`
}

func (SpeechStartedEvent) EventType() string { return EventSpeechStarted }

// SpeechStoppedEvent signals detected end of user speech.
type SpeechStoppedEvent struct {
	Type string `json:"type"`
}

func (SpeechStoppedEvent) EventType() string { return EventSpeechStopped }

// InputAudioCommittedEvent acknowledges a committed input audio buffer.
type InputAudioCommittedEvent struct {
	Type string `json:"type"`
}

func (InputAudioCommittedEvent) EventType() string { return EventInputAudioCommitted }

// AvatarConnectingEvent signals avatar media negotiation progress.
type AvatarConnectingEvent struct {
	Type string `json:"type"`
}

func (AvatarConnectingEvent) EventType() string { return EventAvatarConnecting }

// FunctionCallCompletedEvent names a server-side function whose result was
// fed back into the conversation.
type FunctionCallCompletedEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func (FunctionCallCompletedEvent) EventType() string { return EventFunctionCallCompleted }

// ResponseStatusEvent reports a response that finished with a non-completed
// status.
type ResponseStatusEvent struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

func (ResponseStatusEvent) EventType() string { return EventResponseStatus }

// GenericEvent wraps an upstream message with no dedicated variant; the
// original payload is preserved unchanged.
type GenericEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (GenericEvent) EventType() string { return EventGeneric }

// ServerEnvelope is the minimal decode of any upstream message, used to pick
// the full decode shape.
type ServerEnvelope struct {
	Type string `json:"type"`
}

// AudioDeltaPayload decodes response.audio.delta.
type AudioDeltaPayload struct {
	Delta string `json:"delta"`
}

// TranscriptDeltaPayload decodes response.audio_transcript.delta.
type TranscriptDeltaPayload struct {
	Delta  string `json:"delta"`
	ItemID string `json:"item_id"`
}

// TranscriptDonePayload decodes response.audio_transcript.done.
type TranscriptDonePayload struct {
	Transcript string `json:"transcript"`
	ItemID     string `json:"item_id"`
}

// InputTranscriptionPayload decodes
// conversation.item.input_audio_transcription.completed.
type InputTranscriptionPayload struct {
	Transcript string `json:"transcript"`
	ItemID     string `json:"item_id"`
}

// AvatarConnectingPayload decodes session.avatar.connecting.
type AvatarConnectingPayload struct {
	ServerSDP string `json:"server_sdp"`
}

// ResponseOutputItem is one output entry of a finished response.
type ResponseOutputItem struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	CallID    string `json:"call_id"`
	Arguments string `json:"arguments"`
}

// ResponseDonePayload decodes response.done.
type ResponseDonePayload struct {
	Response struct {
		Status string               `json:"status"`
		Output []ResponseOutputItem `json:"output"`
	} `json:"response"`
}
