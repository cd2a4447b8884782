// Package session implements the per-client relay state machine and the
// registry that tracks live sessions. Each session owns exactly one upstream
// websocket connection, serializes outbound writes, and translates the
// upstream receive stream into normalized client events.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voxbridge-ai/voxbridge/pkg/relay"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/audio"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/protocol"
)

// defaultAvatarTimeout bounds how long ConnectAvatar waits for the upstream
// answer.
const defaultAvatarTimeout = 20 * time.Second

// State is the session lifecycle position. Transitions are monotonic; Closed
// and Failed are terminal.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ToolExecutor dispatches model-initiated function calls to external
// capabilities.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
	Definitions() []protocol.ToolSchema
}

// Config carries everything a session needs to reach and configure the
// upstream voice-live endpoint.
type Config struct {
	// Endpoint is the upstream base URL, e.g. https://myresource.cognitiveservices.azure.com.
	Endpoint   string
	APIVersion string
	Model      string

	Credentials Credentials

	// Session is the body of the initial session.update control message.
	// Tool schemas from Tools are appended at connect time.
	Session protocol.SessionConfig

	Tools  ToolExecutor
	Logger *slog.Logger
	Dialer *websocket.Dialer

	AvatarTimeout time.Duration
	QueueLimit    int
}

// Session is one client's relay onto the upstream connection.
type Session struct {
	id     string
	cfg    Config
	logger *slog.Logger

	mu    sync.Mutex
	state State
	conn  *websocket.Conn

	writeMu sync.Mutex

	queue *eventQueue

	avatarMu   sync.Mutex
	avatarSlot chan string

	cancelRead context.CancelFunc
	done       chan struct{}
	closeOnce  sync.Once
}

// New constructs an idle session. Connect must be called before any
// conversational operation.
func New(id string, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session_id", id)
	return &Session{
		id:     id,
		cfg:    cfg,
		logger: logger,
		state:  StateIdle,
		queue:  newEventQueue(cfg.QueueLimit, logger),
		done:   make(chan struct{}),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// upstreamURL builds the websocket URL for the voice-live realtime endpoint.
func (s *Session) upstreamURL() (string, error) {
	base := strings.TrimRight(s.cfg.Endpoint, "/")
	u, err := url.Parse(base + "/voice-live/realtime")
	if err != nil {
		return "", relay.NewInvalidArgumentError("invalid upstream endpoint", "endpoint")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "wss", "ws":
	default:
		return "", relay.NewInvalidArgumentError("unsupported upstream scheme "+u.Scheme, "endpoint")
	}
	q := u.Query()
	q.Set("api-version", s.cfg.APIVersion)
	q.Set("model", s.cfg.Model)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the upstream endpoint, starts the receive loop, and sends the
// initial session configuration. On failure the session becomes terminally
// failed and must be discarded.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		st := s.state
		s.mu.Unlock()
		return relay.NewInternalConflictError("connect in state " + st.String())
	}
	s.state = StateConnecting
	s.mu.Unlock()

	target, err := s.upstreamURL()
	if err != nil {
		s.fail()
		return err
	}
	header, err := s.cfg.Credentials.Header(ctx)
	if err != nil {
		s.fail()
		return err
	}

	dialer := s.cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		s.fail()
		if resp != nil {
			return relay.NewUpstreamUnavailableError(fmt.Sprintf("dial upstream (status %d)", resp.StatusCode), err)
		}
		return relay.NewUpstreamUnavailableError("dial upstream", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.conn = conn
	s.cancelRead = cancel
	s.state = StateConnected
	s.mu.Unlock()

	go s.readLoop(readCtx, conn)

	if err := s.sendSessionConfig(); err != nil {
		s.Disconnect()
		s.fail()
		return relay.NewUpstreamUnavailableError("send session configuration", err)
	}
	s.logger.Info("session connected", "model", s.cfg.Model)
	return nil
}

func (s *Session) fail() {
	s.setState(StateFailed)
	s.queue.Close()
}

func (s *Session) sendSessionConfig() error {
	sc := s.cfg.Session
	if s.cfg.Tools != nil {
		sc.Tools = append(sc.Tools, s.cfg.Tools.Definitions()...)
	}
	return s.sendJSON(protocol.SessionUpdate{
		EventID: uuid.NewString(),
		Type:    protocol.TypeSessionUpdate,
		Session: sc,
	})
}

// sendJSON serializes v to one text frame and writes it under the shared
// write lock.
func (s *Session) sendJSON(v any) error {
	s.mu.Lock()
	conn := s.conn
	connected := s.state == StateConnected
	s.mu.Unlock()
	if !connected || conn == nil {
		return relay.NewNotConnectedError("session is not connected")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return relay.NewProtocolError("encode control message", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return relay.NewUpstreamUnavailableError("write control message", err)
	}
	return nil
}

// SendUserMessage places a user text turn into the conversation and requests
// a new assistant response.
func (s *Session) SendUserMessage(text string) error {
	if err := s.sendJSON(protocol.ConversationItemCreate{
		EventID: uuid.NewString(),
		Type:    protocol.TypeConversationItemCreate,
		Item:    protocol.NewUserMessageItem(text),
	}); err != nil {
		return err
	}
	return s.sendJSON(protocol.NewResponseCreate(uuid.NewString()))
}

// SendAudioChunk appends one audio chunk to the upstream input buffer.
// Float32 payloads are transcoded to PCM16; anything else is forwarded
// unchanged.
func (s *Session) SendAudioChunk(base64Payload, encoding string) error {
	payload := base64Payload
	if encoding == audio.EncodingFloat32 {
		transcoded, err := audio.TranscodeFloat32Base64(base64Payload)
		if err != nil {
			return relay.NewInvalidArgumentError("transcode audio chunk: "+err.Error(), "audio")
		}
		payload = transcoded
	}
	return s.sendJSON(protocol.InputAudioAppend{
		EventID: uuid.NewString(),
		Type:    protocol.TypeInputAudioAppend,
		Audio:   payload,
	})
}

// CommitAudio commits the upstream input audio buffer.
func (s *Session) CommitAudio() error {
	return s.sendJSON(protocol.InputAudioControl{
		EventID: uuid.NewString(),
		Type:    protocol.TypeInputAudioCommit,
	})
}

// ClearAudio clears the upstream input audio buffer.
func (s *Session) ClearAudio() error {
	return s.sendJSON(protocol.InputAudioControl{
		EventID: uuid.NewString(),
		Type:    protocol.TypeInputAudioClear,
	})
}

// RequestResponse asks the upstream model for a new assistant turn.
func (s *Session) RequestResponse() error {
	return s.sendJSON(protocol.NewResponseCreate(uuid.NewString()))
}

// Forward relays an unrecognized client command upstream verbatim with a
// fresh event id injected.
func (s *Session) Forward(raw json.RawMessage) error {
	var msg map[string]any
	if err := json.Unmarshal(raw, &msg); err != nil {
		return relay.NewInvalidArgumentError("malformed command payload", "payload")
	}
	if _, ok := msg["type"].(string); !ok {
		return relay.NewInvalidArgumentError("command payload missing type", "type")
	}
	msg["event_id"] = uuid.NewString()
	return s.sendJSON(msg)
}

// ConnectAvatar submits the client's session-description offer and blocks
// until the upstream answer arrives, the timeout elapses, or ctx is
// cancelled. At most one negotiation is pending at a time; a newer call
// orphans the previous waiter.
func (s *Session) ConnectAvatar(ctx context.Context, clientOfferSDP string) (string, error) {
	if s.State() != StateConnected {
		return "", relay.NewNotConnectedError("session is not connected")
	}

	encoded, err := protocol.EncodeClientOffer(clientOfferSDP)
	if err != nil {
		return "", relay.NewProtocolError("encode client offer", err)
	}

	slot := make(chan string, 1)
	s.avatarMu.Lock()
	if s.avatarSlot != nil {
		s.logger.Warn("avatar negotiation replaced a pending one")
	}
	s.avatarSlot = slot
	s.avatarMu.Unlock()
	defer s.clearAvatarSlot(slot)

	if err := s.sendJSON(protocol.AvatarConnect{
		EventID:   uuid.NewString(),
		Type:      protocol.TypeAvatarConnect,
		ClientSDP: encoded,
	}); err != nil {
		return "", err
	}

	timeout := s.cfg.AvatarTimeout
	if timeout <= 0 {
		timeout = defaultAvatarTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case answer := <-slot:
		return answer, nil
	case <-timer.C:
		return "", relay.NewTimeoutError("avatar negotiation timed out")
	case <-ctx.Done():
		return "", relay.NewCancelledError("avatar negotiation cancelled", context.Cause(ctx))
	}
}

// clearAvatarSlot removes the slot if it is still the pending one.
func (s *Session) clearAvatarSlot(slot chan string) {
	s.avatarMu.Lock()
	if s.avatarSlot == slot {
		s.avatarSlot = nil
	}
	s.avatarMu.Unlock()
}

// resolveAvatar delivers the decoded server answer to the pending waiter, if
// any.
func (s *Session) resolveAvatar(answer string) {
	s.avatarMu.Lock()
	slot := s.avatarSlot
	s.avatarSlot = nil
	s.avatarMu.Unlock()
	if slot == nil {
		s.logger.Debug("avatar answer received with no pending negotiation")
		return
	}
	slot <- answer
}

// Next blocks until the next normalized client event is available. It
// returns io.EOF once the session's event stream is complete.
func (s *Session) Next(ctx context.Context) (protocol.ClientEvent, error) {
	return s.queue.Next(ctx)
}

// Dropped reports how many events were evicted under consumer backpressure.
func (s *Session) Dropped() uint64 {
	return s.queue.Dropped()
}

// Disconnect tears the session down: close frame, receive-loop cancellation,
// connection release, event-queue completion. Idempotent.
func (s *Session) Disconnect() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		conn := s.conn
		cancel := s.cancelRead
		if s.state != StateFailed {
			s.state = StateClosed
		}
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if conn != nil {
			s.writeMu.Lock()
			deadline := time.Now().Add(time.Second)
			if err := conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline); err != nil &&
				!errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Debug("write close frame", "error", err)
			}
			s.writeMu.Unlock()
			conn.Close()
			<-s.done
		}
		s.queue.Close()
		s.logger.Info("session closed", "dropped_events", s.queue.Dropped())
	})
}
