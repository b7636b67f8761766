package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/events"
)

// AuditWorker writes every user lifecycle event to the audit log.
type AuditWorker struct {
	logger *zap.Logger
}

// NewAuditWorker builds a worker logging under the "audit" name.
func NewAuditWorker(logger *zap.Logger) *AuditWorker {
	return &AuditWorker{logger: logger.Named("audit")}
}

// StartAuditWorker subscribes the worker to all event types.
func StartAuditWorker(dispatcher events.Dispatcher, w *AuditWorker) {
	if dispatcher == nil || w == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, w.Handle)
	}
}

// Handle logs a single event.
func (w *AuditWorker) Handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.Time("at", event.Timestamp),
	}
	if event.Actor.UserID != "" {
		fields = append(fields,
			zap.String("actor_id", event.Actor.UserID),
			zap.String("actor_role", string(event.Actor.Role)))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	w.logger.Info("audit event", fields...)
	return nil
}
