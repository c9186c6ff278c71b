package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *capturingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) snapshot() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	publisher := &capturingPublisher{}
	dispatcher := NewDispatcher(publisher, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx)

	dispatcher.Emit(Event{Type: TypeAllocationCreated, EntityID: "a"})
	dispatcher.Emit(Event{Type: TypeAllocationCompleted, EntityID: "b"})

	cancel()
	dispatcher.Wait()

	got := publisher.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, TypeAllocationCreated, got[0].Type)
	assert.Equal(t, TypeAllocationCompleted, got[1].Type)
}

func TestDispatcherStampsOccurredAt(t *testing.T) {
	publisher := &capturingPublisher{}
	dispatcher := NewDispatcher(publisher, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx)

	dispatcher.Emit(Event{Type: TypePaymentCompleted, EntityID: "p"})

	cancel()
	dispatcher.Wait()

	got := publisher.snapshot()
	require.Len(t, got, 1)
	assert.False(t, got[0].OccurredAt.IsZero())
}

// TestDispatcherDrainsOnShutdown queues everything before Run starts, then
// cancels immediately: the drain path must still deliver the backlog.
func TestDispatcherDrainsOnShutdown(t *testing.T) {
	publisher := &capturingPublisher{}
	dispatcher := NewDispatcher(publisher, discardLogger())

	for i := 0; i < 10; i++ {
		dispatcher.Emit(Event{Type: TypeComplaintResolved, EntityID: "c"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go dispatcher.Run(ctx)
	dispatcher.Wait()

	assert.Len(t, publisher.snapshot(), 10)
}

func TestDispatcherEmitNeverBlocks(t *testing.T) {
	publisher := &capturingPublisher{}
	dispatcher := NewDispatcher(publisher, discardLogger())

	// No Run consuming the inbox: overflow past the buffer must drop, not
	// block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < defaultBuffer+50; i++ {
			dispatcher.Emit(Event{Type: TypeAllocationCreated, EntityID: "x"})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}
}

func TestDispatcherSurvivesPublishFailure(t *testing.T) {
	publisher := &capturingPublisher{err: errors.New("broker down")}
	dispatcher := NewDispatcher(publisher, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Run(ctx)

	dispatcher.Emit(Event{Type: TypePaymentFailed, EntityID: "p"})

	cancel()
	dispatcher.Wait()

	assert.Empty(t, publisher.snapshot())
}
