package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Event is the envelope for every message exchanged over a session socket.
type Event struct {
	ID        string          `json:"id"`                // Event UUID
	Session   string          `json:"session,omitempty"` // Session name, when known
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	AckID     string          `json:"ack_id,omitempty"` // Set by clients that expect an Ack
	Data      json.RawMessage `json:"data,omitempty"`
}

// EventType represents the type of a socket event
type EventType string

// Inbound
const (
	EventTypeConnect                  EventType = "Connect"
	EventTypeUpdateGameSettingsPreset EventType = "UpdateGameSettingsPreset"
	EventTypeUpdateVoiceType          EventType = "UpdateVoiceType"
	EventTypeUpdateVoiceDuration      EventType = "UpdateVoiceDuration"
	EventTypeAttemptSpectate          EventType = "AttemptSpectate"
	EventTypeLeaveSession             EventType = "LeaveSession"
	EventTypeGenerateCustomGame       EventType = "GenerateCustomGame"
	EventTypePlayAgain                EventType = "PlayAgain"
	EventTypeStartGame                EventType = "StartGame"
	EventTypeSelectClue               EventType = "SelectClue"
	EventTypeBuzz                     EventType = "Buzz"
	EventTypeSubmitResponse           EventType = "SubmitResponse"
	EventTypeSubmitWager              EventType = "SubmitWager"
)

// Outbound. UpdateGameSettingsPreset and UpdateVoiceType are reused in both directions.
const (
	EventTypeMessage           EventType = "Message"
	EventTypeCancelGame        EventType = "CancelGame"
	EventTypeStateUpdate       EventType = "StateUpdate"
	EventTypeTriviaRoundUpdate EventType = "TriviaRoundUpdate"
	EventTypeLeaderboardUpdate EventType = "LeaderboardUpdate"
	EventTypeVoiceLine         EventType = "VoiceLine"
	EventTypeSessionJoined     EventType = "SessionJoined"
	EventTypeAck               EventType = "Ack"
)

// New builds an outbound event with a marshalled payload. A nil payload leaves Data empty.
func New(typ EventType, payload any) *Event {
	ev := &Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Timestamp: time.Now().UTC(),
	}
	if payload == nil {
		return ev
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(typ)).Msg("failed to marshal event payload")
		return ev
	}
	ev.Data = data
	return ev
}

// WithSession returns a copy of the event addressed to the given session.
func (e *Event) WithSession(name string) *Event {
	cp := *e
	cp.Session = name
	return &cp
}

// Parse decodes a raw socket frame into an envelope.
func Parse(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("event has no type")
	}
	return &ev, nil
}

// DecodePayload unmarshals the event data into v. Empty data leaves v untouched.
func (e *Event) DecodePayload(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", e.Type, err)
	}
	return nil
}
