package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	AlertCreated        = "alert.created"
	AlertUpdated        = "alert.updated"
	AlertArchived       = "alert.archived"
	AlertUnarchived     = "alert.unarchived"
	AlertDeleted        = "alert.deleted"
	SubscriptionCreated = "subscription.created"
	ReportSubmitted     = "report.submitted"
	DispatchCompleted   = "dispatch.completed"
	FloodRecorded       = "flood.recorded"
)

var (
	ErrQueueFull = errors.New("event queue full")
	ErrClosed    = errors.New("event publisher closed")
)

// Event is a domain notification for downstream consumers. Type doubles as
// the routing key.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(eventType string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, ev Event) error {
	slog.Debug("event dropped, no broker configured", "type", ev.Type, "id", ev.ID)
	return nil
}

func (NopPublisher) Close() error { return nil }
