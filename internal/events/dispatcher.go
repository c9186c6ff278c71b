package events

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher decouples event producers from the publisher with a buffered
// channel and a single background worker. Emit never blocks: when the buffer
// is full the event is dropped and logged, because notifications are advisory
// and must not back-pressure the transaction that produced them.
type Dispatcher struct {
	publisher Publisher
	logger    *slog.Logger
	inbox     chan Event
	done      chan struct{}
}

const defaultBuffer = 256

func NewDispatcher(publisher Publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    logger,
		inbox:     make(chan Event, defaultBuffer),
		done:      make(chan struct{}),
	}
}

// Emit queues an event for delivery.
func (d *Dispatcher) Emit(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	select {
	case d.inbox <- event:
	default:
		d.logger.Warn("event dropped: dispatch buffer full", "type", string(event.Type), "entity_id", event.EntityID)
	}
}

// Run consumes the inbox until ctx is cancelled, then drains what is queued.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case event := <-d.inbox:
			d.publish(ctx, event)
		}
	}
}

// Wait blocks until Run has returned.
func (d *Dispatcher) Wait() {
	<-d.done
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.inbox:
			d.publish(context.Background(), event)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, event Event) {
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := d.publisher.Publish(publishCtx, event); err != nil {
		d.logger.Error("event publish failed", "type", string(event.Type), "entity_id", event.EntityID, "error", err)
	}
}
