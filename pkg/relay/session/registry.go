package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/voxbridge-ai/voxbridge/pkg/relay"
)

// Registry is a concurrent-safe directory of live sessions keyed by id.
// Sessions are published only after a successful upstream handshake, so a
// looked-up session is always usable. Ids are never reused.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg    Config
	logger *slog.Logger
}

// NewRegistry builds a registry that stamps cfg onto every created session.
func NewRegistry(cfg Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		logger:   logger,
	}
}

// Create constructs a session with a fresh id, connects it upstream, and
// publishes it. The session is torn down if publication fails.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	s := New(id, r.cfg)
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		s.Disconnect()
		return nil, relay.NewInternalConflictError("session id collision: " + id)
	}
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Info("session created", "session_id", id)
	return s, nil
}

// Get looks a session up by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, relay.NewNotFoundError("no session with id " + id)
	}
	return s, nil
}

// List snapshots the ids of all live sessions.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Remove disconnects the session and drops it from the directory. No-op for
// unknown ids.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	s.Disconnect()
	r.logger.Info("session removed", "session_id", id)
}

// CloseAll tears down every live session. Used on shutdown.
func (r *Registry) CloseAll() {
	for _, id := range r.List() {
		r.Remove(id)
	}
}
