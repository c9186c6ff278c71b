// Package events carries domain event notification out of the engine.
// Dispatch is fire-and-forget: producing transactions never block on, and
// never fail because of, the notification path.
package events

import (
	"context"
	"time"
)

// Type names a domain event.
type Type string

const (
	TypeApplicationDecided  Type = "application.decided"
	TypeAllocationCreated   Type = "allocation.created"
	TypeAllocationCompleted Type = "allocation.completed"
	TypePaymentCompleted    Type = "payment.completed"
	TypePaymentFailed       Type = "payment.failed"
	TypeComplaintResolved   Type = "complaint.resolved"
)

// Event is the envelope published for every notification.
type Event struct {
	Type       Type              `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	EntityID   string            `json:"entity_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Publisher delivers events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop drops events; used when no broker is configured and in unit tests
// that don't assert on notifications.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event Event) error { return nil }
