package domain

import "time"

// WebhookEventStatus tracks processing of an inbound webhook delivery.
type WebhookEventStatus string

const (
	WebhookEventReceived  WebhookEventStatus = "RECEIVED"
	WebhookEventProcessed WebhookEventStatus = "PROCESSED"
	WebhookEventFailed    WebhookEventStatus = "FAILED"
)

// WebhookEvent is the idempotency record for a provider event id.
type WebhookEvent struct {
	ID          string
	EventID     string
	EventType   string
	Provider    string
	Status      WebhookEventStatus
	FailReason  *string
	ReceivedAt  time.Time
	ProcessedAt *time.Time
	FailedAt    *time.Time
}
