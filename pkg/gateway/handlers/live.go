// Package handlers contains the gateway's HTTP surface: the browser-facing
// live websocket and the health probe.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxbridge-ai/voxbridge/pkg/gateway/config"
	"github.com/voxbridge-ai/voxbridge/pkg/relay/session"
)

// Browser-facing command and event types. Commands with any other type are
// forwarded upstream verbatim.
const (
	cmdUserMessage   = "user_message"
	cmdInputAudio    = "input_audio"
	cmdCommitAudio   = "input_audio_commit"
	cmdClearAudio    = "input_audio_clear"
	cmdRequestReply  = "response_request"
	cmdAvatarConnect = "avatar_connect"

	evtSessionCreated  = "session_created"
	evtAvatarConnected = "avatar_connected"
	evtCommandError    = "command_error"
)

type clientCommand struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Audio     string `json:"audio,omitempty"`
	Encoding  string `json:"encoding,omitempty"`
	ClientSDP string `json:"client_sdp,omitempty"`
}

// wsWriter serializes writes to one browser connection. gorilla permits a
// single concurrent writer; the event pump, command replies, and avatar
// negotiation all write through this.
type wsWriter struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

func (w *wsWriter) writeJSON(v any) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.timeout))
	return w.conn.WriteJSON(v) == nil
}

// LiveHandler bridges one browser websocket to one relay session.
type LiveHandler struct {
	Config   config.Config
	Registry *session.Registry
	Logger   *slog.Logger
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.originAllowed(r) {
		http.Error(w, "origin is not allowed", http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	timeout := h.Config.WSWriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	writer := &wsWriter{conn: conn, timeout: timeout}

	sess, err := h.Registry.Create(r.Context())
	if err != nil {
		logger.Error("create session failed", "error", err)
		writer.writeJSON(map[string]string{"type": evtCommandError, "message": "failed to create session"})
		return
	}
	defer h.Registry.Remove(sess.ID())

	logger = logger.With("session_id", sess.ID())
	writer.writeJSON(map[string]string{"type": evtSessionCreated, "session_id": sess.ID()})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Unblocks the command pump when the event stream ends first.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		pumpEvents(ctx, writer, sess, logger)
	}()

	h.pumpCommands(ctx, conn, writer, sess, logger)
	cancel()
	sess.Disconnect()
	wg.Wait()
}

// pumpEvents drains the session's normalized event stream onto the browser
// connection.
func pumpEvents(ctx context.Context, writer *wsWriter, sess *session.Session, logger *slog.Logger) {
	for {
		ev, err := sess.Next(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				logger.Warn("event stream ended", "error", err)
			}
			return
		}
		if !writer.writeJSON(ev) {
			return
		}
	}
}

// pumpCommands reads browser commands and maps them onto relay operations.
func (h LiveHandler) pumpCommands(ctx context.Context, conn *websocket.Conn, writer *wsWriter, sess *session.Session, logger *slog.Logger) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Info("client connection closed", "error", err)
			}
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			writer.writeJSON(map[string]string{"type": evtCommandError, "message": "malformed command"})
			continue
		}

		switch cmd.Type {
		case cmdUserMessage:
			err = sess.SendUserMessage(cmd.Text)
		case cmdInputAudio:
			err = sess.SendAudioChunk(cmd.Audio, cmd.Encoding)
		case cmdCommitAudio:
			err = sess.CommitAudio()
		case cmdClearAudio:
			err = sess.ClearAudio()
		case cmdRequestReply:
			err = sess.RequestResponse()
		case cmdAvatarConnect:
			// Negotiation blocks up to the avatar timeout; run it off the
			// read loop so audio keeps flowing meanwhile.
			go negotiateAvatar(ctx, writer, sess, cmd.ClientSDP, logger)
			continue
		default:
			err = sess.Forward(data)
		}
		if err != nil {
			logger.Warn("command failed", "command", cmd.Type, "error", err)
			writer.writeJSON(map[string]string{"type": evtCommandError, "command": cmd.Type, "message": err.Error()})
		}
	}
}

func negotiateAvatar(ctx context.Context, writer *wsWriter, sess *session.Session, offer string, logger *slog.Logger) {
	answer, err := sess.ConnectAvatar(ctx, offer)
	if err != nil {
		logger.Warn("avatar negotiation failed", "error", err)
		writer.writeJSON(map[string]string{"type": evtCommandError, "command": cmdAvatarConnect, "message": err.Error()})
		return
	}
	writer.writeJSON(map[string]string{"type": evtAvatarConnected, "server_sdp": answer})
}

func (h LiveHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if len(h.Config.CORSAllowedOrigins) == 0 {
		return false
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}
