package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/user-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserLoggedIn    EventType = "user_logged_in"
	EventUserLoggedOut   EventType = "user_logged_out"
	EventUserUpdated     EventType = "user_updated"
	EventUserDeleted     EventType = "user_deleted"
	EventWebhookReceived EventType = "webhook_received"
)

// AllEventTypes lists every type services publish.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventUserLoggedIn,
	EventUserLoggedOut,
	EventUserUpdated,
	EventUserDeleted,
	EventWebhookReceived,
}

// Actor identifies who caused an event. Empty for anonymous callers.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, subjectID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserUpdatedPayload lists the fields an update touched.
type UserUpdatedPayload struct {
	Fields []string `json:"fields"`
	ByRole bool     `json:"by_role"`
}

// UserDeletedPayload records the deletion path.
type UserDeletedPayload struct {
	Self bool `json:"self"`
}

// WebhookReceivedPayload carries the provider envelope.
type WebhookReceivedPayload struct {
	Provider  string         `json:"provider"`
	EventType string         `json:"event_type"`
	Data      map[string]any `json:"data"`
}
