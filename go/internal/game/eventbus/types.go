package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventType names a session lifecycle event.
type EventType string

const (
	EventTypeSessionCreated      EventType = "SessionCreated"
	EventTypeSessionStateChanged EventType = "SessionStateChanged"
	EventTypeSessionDeleted      EventType = "SessionDeleted"
)

// SessionEvent is published whenever a session is created, changes phase or is torn down.
type SessionEvent struct {
	ID        uuid.UUID
	Type      EventType
	Session   string
	State     string
	Timestamp time.Time
}

// NewSessionEvent stamps an event with a fresh ID and the current time.
func NewSessionEvent(typ EventType, session, state string) SessionEvent {
	return SessionEvent{
		ID:        uuid.New(),
		Type:      typ,
		Session:   session,
		State:     state,
		Timestamp: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event SessionEvent) error
}

// NoOpPublisher drops every event. Used when no bus is configured.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(_ context.Context, event SessionEvent) error {
	log.Debug().
		Str("event_type", string(event.Type)).
		Str("session", event.Session).
		Msg("event bus disabled, dropping event")
	return nil
}
