package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/voxbridge-ai/voxbridge/pkg/relay/protocol"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueueDeliversInOrder(t *testing.T) {
	q := newEventQueue(8, discardLogger())
	q.Push(protocol.TranscriptDeltaEvent{Type: protocol.EventTranscriptDelta, Delta: "a"})
	q.Push(protocol.TranscriptDeltaEvent{Type: protocol.EventTranscriptDelta, Delta: "b"})

	ctx := context.Background()
	for _, want := range []string{"a", "b"} {
		ev, err := q.Next(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, ok := ev.(protocol.TranscriptDeltaEvent)
		if !ok {
			t.Fatalf("unexpected event type %T", ev)
		}
		if got.Delta != want {
			t.Fatalf("expected delta %q, got %q", want, got.Delta)
		}
	}
}

func TestQueueBlocksUntilPush(t *testing.T) {
	q := newEventQueue(8, discardLogger())

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Push(protocol.SpeechStartedEvent{Type: protocol.EventSpeechStarted})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := q.Next(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.EventType() != protocol.EventSpeechStarted {
		t.Fatalf("unexpected event %q", ev.EventType())
	}
}

func TestQueueDropsOldestWhenFull(t *testing.T) {
	q := newEventQueue(2, discardLogger())
	q.Push(protocol.TranscriptDeltaEvent{Type: protocol.EventTranscriptDelta, Delta: "old"})
	q.Push(protocol.TranscriptDeltaEvent{Type: protocol.EventTranscriptDelta, Delta: "mid"})
	q.Push(protocol.TranscriptDeltaEvent{Type: protocol.EventTranscriptDelta, Delta: "new"})

	if got := q.Dropped(); got != 1 {
		t.Fatalf("expected 1 dropped event, got %d", got)
	}

	ev, err := q.Next(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ev.(protocol.TranscriptDeltaEvent).Delta; got != "mid" {
		t.Fatalf("expected oldest event to be dropped, first is %q", got)
	}
}

func TestQueueNextAfterCloseDrainsThenEOF(t *testing.T) {
	q := newEventQueue(8, discardLogger())
	q.Push(protocol.SpeechStoppedEvent{Type: protocol.EventSpeechStopped})
	q.Close()

	ctx := context.Background()
	if _, err := q.Next(ctx); err != nil {
		t.Fatalf("buffered event should survive close: %v", err)
	}
	if _, err := q.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestQueuePushAfterCloseIsNoop(t *testing.T) {
	q := newEventQueue(8, discardLogger())
	q.Close()
	q.Push(protocol.SpeechStartedEvent{Type: protocol.EventSpeechStarted})
	if _, err := q.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestQueueNextHonorsCancellation(t *testing.T) {
	q := newEventQueue(8, discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := q.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
