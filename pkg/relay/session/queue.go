package session

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/voxbridge-ai/voxbridge/pkg/relay/protocol"
)

// defaultQueueLimit bounds the per-session event backlog. When the consumer
// stalls, the oldest undelivered events are dropped rather than growing
// memory without limit.
const defaultQueueLimit = 1024

// eventQueue buffers normalized events between the receive loop and the
// single downstream consumer. Pushes past the limit evict the oldest entry
// and count the drop.
type eventQueue struct {
	mu      sync.Mutex
	items   []protocol.ClientEvent
	closed  bool
	dropped uint64
	limit   int
	wake    chan struct{}
	logger  *slog.Logger
}

func newEventQueue(limit int, logger *slog.Logger) *eventQueue {
	if limit <= 0 {
		limit = defaultQueueLimit
	}
	return &eventQueue{
		limit:  limit,
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Push enqueues an event. Pushing to a closed queue is a no-op.
func (q *eventQueue) Push(ev protocol.ClientEvent) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	var dropped uint64
	if len(q.items) >= q.limit {
		q.items = q.items[1:]
		q.dropped++
		dropped = q.dropped
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()

	if dropped > 0 {
		q.logger.Warn("event queue full, dropped oldest event", "dropped_total", dropped)
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Next blocks until an event is available, the queue is closed, or ctx is
// done. It returns io.EOF once the queue is closed and drained.
func (q *eventQueue) Next(ctx context.Context) (protocol.ClientEvent, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return ev, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, io.EOF
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		}
	}
}

// Close marks the queue complete. Buffered events remain consumable; Next
// returns io.EOF once they are drained.
func (q *eventQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	dropped := q.dropped
	q.mu.Unlock()

	if dropped > 0 {
		q.logger.Warn("event queue closed with dropped events", "dropped_total", dropped)
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Dropped reports how many events were evicted under backpressure.
func (q *eventQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
