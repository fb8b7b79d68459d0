// Package events publishes class scheduling events to a message broker.
package events

import (
	"context"
	"time"
)

// Event types emitted by the service.
const (
	TypeClassesCreated  = "class_sections.created"
	TypeClassUpdated    = "class_sections.updated"
	TypeClassDeleted    = "class_sections.deleted"
	TypeScheduleApplied = "schedules.accepted"
)

// Event is the envelope written to the broker.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
