package session

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voxbridge-ai/voxbridge/pkg/relay/protocol"
)

// readLoop runs for the lifetime of the connection. It decodes each inbound
// frame, translates it into the normalized client event vocabulary, and
// pushes it onto the session queue. A transport failure terminates the loop
// and broadcasts an error event; the session then requires explicit teardown.
func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)
	defer s.queue.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("upstream closed the connection")
				return
			}
			s.logger.Error("upstream read failed", "error", err)
			s.queue.Push(protocol.NewErrorEvent("upstream connection lost: "+err.Error(), nil))
			return
		}
		s.handleFrame(ctx, data)
	}
}

// handleFrame translates one complete upstream message. Malformed JSON is
// logged and skipped without terminating the loop.
func (s *Session) handleFrame(ctx context.Context, data []byte) {
	var env protocol.ServerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("malformed upstream message skipped", "error", err)
		return
	}

	switch env.Type {
	case protocol.ServerTypeError:
		s.queue.Push(protocol.NewErrorEvent("", json.RawMessage(data)))

	case protocol.ServerTypeAudioDelta:
		var p protocol.AudioDeltaPayload
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn("malformed audio delta skipped", "error", err)
			return
		}
		s.queue.Push(protocol.AssistantAudioDeltaEvent{
			Type:  protocol.EventAssistantAudioDelta,
			Delta: p.Delta,
		})

	case protocol.ServerTypeAudioDone:
		s.queue.Push(protocol.AssistantAudioDoneEvent{Type: protocol.EventAssistantAudioDone})

	case protocol.ServerTypeTranscriptDelta:
		var p protocol.TranscriptDeltaPayload
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn("malformed transcript delta skipped", "error", err)
			return
		}
		s.queue.Push(protocol.TranscriptDeltaEvent{
			Type:   protocol.EventTranscriptDelta,
			Delta:  p.Delta,
			ItemID: p.ItemID,
		})

	case protocol.ServerTypeTranscriptDone:
		var p protocol.TranscriptDonePayload
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn("malformed transcript done skipped", "error", err)
			return
		}
		s.queue.Push(protocol.TranscriptDoneEvent{
			Type:       protocol.EventTranscriptDone,
			Transcript: p.Transcript,
			ItemID:     p.ItemID,
		})

	case protocol.ServerTypeInputTranscriptionDone:
		var p protocol.InputTranscriptionPayload
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn("malformed input transcription skipped", "error", err)
			return
		}
		s.queue.Push(protocol.UserTranscriptEvent{
			Type:       protocol.EventUserTranscript,
			Transcript: p.Transcript,
			ItemID:     p.ItemID,
		})

	case protocol.ServerTypeSpeechStarted:
		s.queue.Push(protocol.SpeechStartedEvent{Type: protocol.EventSpeechStarted})

	case protocol.ServerTypeSpeechStopped:
		s.queue.Push(protocol.SpeechStoppedEvent{Type: protocol.EventSpeechStopped})

	case protocol.ServerTypeInputAudioCommitted:
		s.queue.Push(protocol.InputAudioCommittedEvent{Type: protocol.EventInputAudioCommitted})

	case protocol.ServerTypeAvatarConnecting:
		s.handleAvatarConnecting(data)

	case protocol.ServerTypeResponseDone:
		s.handleResponseDone(ctx, data)

	default:
		s.queue.Push(protocol.GenericEvent{
			Type:    protocol.EventGeneric,
			Payload: json.RawMessage(data),
		})
	}
}

func (s *Session) handleAvatarConnecting(data []byte) {
	var p protocol.AvatarConnectingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("malformed avatar negotiation event skipped", "error", err)
		return
	}
	answer, err := protocol.DecodeServerSDP(p.ServerSDP)
	if err != nil {
		s.logger.Warn("undecodable server sdp", "error", err)
		s.queue.Push(protocol.NewErrorEvent("avatar negotiation failed: undecodable server sdp: "+err.Error(), nil))
		return
	}
	s.resolveAvatar(answer)
	s.queue.Push(protocol.AvatarConnectingEvent{Type: protocol.EventAvatarConnecting})
}

// handleResponseDone inspects a finished response. Non-completed statuses are
// reported to the client; completed responses whose first output is a
// function call are dispatched to the tool executor.
func (s *Session) handleResponseDone(ctx context.Context, data []byte) {
	var p protocol.ResponseDonePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("malformed response done skipped", "error", err)
		return
	}
	if p.Response.Status != "completed" {
		s.queue.Push(protocol.ResponseStatusEvent{
			Type:   protocol.EventResponseStatus,
			Status: p.Response.Status,
		})
		return
	}
	if len(p.Response.Output) == 0 || p.Response.Output[0].Type != "function_call" {
		return
	}
	call := p.Response.Output[0]
	if call.Name == "" || call.CallID == "" {
		return
	}
	go s.executeFunctionCall(ctx, call)
}

// executeFunctionCall runs a model-initiated tool call and feeds the result
// back into the conversation. Failures are logged and swallowed so the
// conversation continues without the function result.
func (s *Session) executeFunctionCall(ctx context.Context, call protocol.ResponseOutputItem) {
	logger := s.logger.With("function", call.Name, "call_id", call.CallID)

	if s.cfg.Tools == nil {
		logger.Error("function call received but no tool executor configured")
		return
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			logger.Error("function call arguments unparseable", "error", err)
			return
		}
	}

	result, err := s.cfg.Tools.Execute(ctx, call.Name, args)
	if err != nil {
		logger.Error("function call failed", "error", err)
		return
	}

	if err := s.sendJSON(protocol.ConversationItemCreate{
		EventID: uuid.NewString(),
		Type:    protocol.TypeConversationItemCreate,
		Item:    protocol.NewFunctionCallOutputItem(call.CallID, result),
	}); err != nil {
		logger.Error("send function call output", "error", err)
		return
	}
	if err := s.sendJSON(protocol.NewResponseCreate(uuid.NewString())); err != nil {
		logger.Error("request follow-up response", "error", err)
		return
	}
	s.queue.Push(protocol.FunctionCallCompletedEvent{
		Type: protocol.EventFunctionCallCompleted,
		Name: call.Name,
	})
	logger.Info("function call completed")
}
