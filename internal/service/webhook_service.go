package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/repository"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// WebhookEnvelope is the minimum contract every provider payload satisfies.
type WebhookEnvelope struct {
	EventID   string
	EventType string
	Data      map[string]any
}

// WebhookResult reports what happened to a delivery.
type WebhookResult struct {
	EventID   string
	Duplicate bool
	Status    domain.WebhookEventStatus
}

// WebhookService accepts signed provider callbacks exactly once per event id.
type WebhookService struct {
	events     repository.WebhookEventRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewWebhookService builds the service.
func NewWebhookService(repo repository.WebhookEventRepository, dispatcher events.Dispatcher, logger *zap.Logger) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{events: repo, dispatcher: dispatcher, logger: logger}
}

// ParseEnvelope validates the raw body against the webhook contract.
func ParseEnvelope(body []byte) (*WebhookEnvelope, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, apperrors.NewValidationError(CodeWebhookInvalidInput, "Invalid input", "body")
	}
	for _, key := range []string{"eventId", "eventType", "data"} {
		if _, ok := raw[key]; !ok {
			return nil, apperrors.NewValidationError(CodeWebhookContract, "Invalid webhook contract", "body")
		}
	}

	eventID, _ := raw["eventId"].(string)
	eventType, _ := raw["eventType"].(string)
	if strings.TrimSpace(eventID) == "" || strings.TrimSpace(eventType) == "" {
		return nil, apperrors.NewValidationError(CodeWebhookContract, "Invalid webhook contract", "body")
	}
	data, _ := raw["data"].(map[string]any)

	return &WebhookEnvelope{
		EventID:   strings.TrimSpace(eventID),
		EventType: strings.TrimSpace(eventType),
		Data:      data,
	}, nil
}

// Receive records the delivery, dispatches it once and stores the outcome.
// Repeated deliveries return the stored status without dispatching.
func (s *WebhookService) Receive(ctx context.Context, provider string, body []byte) (*WebhookResult, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return nil, apperrors.NewValidationError(CodeWebhookProviderMissing, "Provider is required", "provider")
	}
	envelope, err := ParseEnvelope(body)
	if err != nil {
		return nil, err
	}

	record := &domain.WebhookEvent{
		EventID:   envelope.EventID,
		EventType: envelope.EventType,
		Provider:  provider,
	}
	if err := s.events.Create(ctx, record); err != nil {
		if !errors.Is(err, repository.ErrDuplicateEvent) {
			return nil, apperrors.NewInternalError(err)
		}
		existing, err := s.events.GetByEventID(ctx, envelope.EventID)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		s.logger.Info("duplicate webhook ignored",
			zap.String("provider", provider),
			zap.String("event_id", envelope.EventID),
			zap.String("status", string(existing.Status)))
		return &WebhookResult{EventID: envelope.EventID, Duplicate: true, Status: existing.Status}, nil
	}

	event := events.NewEvent(events.EventWebhookReceived, envelope.EventID, events.Actor{}, events.WebhookReceivedPayload{
		Provider:  provider,
		EventType: envelope.EventType,
		Data:      envelope.Data,
	})

	var dispatchErr error
	if s.dispatcher != nil {
		dispatchErr = s.dispatcher.Publish(ctx, event)
	}
	if dispatchErr != nil {
		s.logger.Warn("webhook processing failed", zap.String("event_id", envelope.EventID), zap.Error(dispatchErr))
		if err := s.events.MarkFailed(ctx, envelope.EventID, dispatchErr.Error()); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		return &WebhookResult{EventID: envelope.EventID, Status: domain.WebhookEventFailed}, nil
	}

	if err := s.events.MarkProcessed(ctx, envelope.EventID); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &WebhookResult{EventID: envelope.EventID, Status: domain.WebhookEventProcessed}, nil
}
