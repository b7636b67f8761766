package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/user-service/internal/domain"
)

// maxFailReason bounds the stored failure reason.
const maxFailReason = 300

// WebhookEventRepository records inbound webhook deliveries for idempotency.
type WebhookEventRepository interface {
	// Create inserts event in RECEIVED state. ErrDuplicateEvent means the
	// event id was already recorded.
	Create(ctx context.Context, event *domain.WebhookEvent) error
	GetByEventID(ctx context.Context, eventID string) (*domain.WebhookEvent, error)
	MarkProcessed(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID, reason string) error
}

const webhookEventColumns = `id, event_id, event_type, provider, status, fail_reason, received_at, processed_at, failed_at`

type webhookEventRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookEventRepository returns a Postgres-backed implementation.
func NewWebhookEventRepository(pool *pgxpool.Pool) WebhookEventRepository {
	return &webhookEventRepository{pool: pool}
}

func (r *webhookEventRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	const query = `
        INSERT INTO webhook_events (event_id, event_type, provider, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, received_at`

	event.Status = domain.WebhookEventReceived
	err := r.pool.QueryRow(ctx, query,
		event.EventID,
		event.EventType,
		event.Provider,
		event.Status,
	).Scan(&event.ID, &event.ReceivedAt)
	return mapError(err, ErrDuplicateEvent)
}

func (r *webhookEventRepository) GetByEventID(ctx context.Context, eventID string) (*domain.WebhookEvent, error) {
	query := `SELECT ` + webhookEventColumns + ` FROM webhook_events WHERE event_id=$1`

	var event domain.WebhookEvent
	err := r.pool.QueryRow(ctx, query, eventID).Scan(
		&event.ID,
		&event.EventID,
		&event.EventType,
		&event.Provider,
		&event.Status,
		&event.FailReason,
		&event.ReceivedAt,
		&event.ProcessedAt,
		&event.FailedAt,
	)
	if err != nil {
		return nil, mapError(err, nil)
	}
	return &event, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	const query = `
        UPDATE webhook_events SET status=$1, processed_at=NOW()
        WHERE event_id=$2`
	return r.exec(ctx, query, domain.WebhookEventProcessed, eventID)
}

func (r *webhookEventRepository) MarkFailed(ctx context.Context, eventID, reason string) error {
	const query = `
        UPDATE webhook_events SET status=$1, failed_at=NOW(), fail_reason=$2
        WHERE event_id=$3`
	return r.exec(ctx, query, domain.WebhookEventFailed, TruncateReason(reason), eventID)
}

func (r *webhookEventRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TruncateReason trims a failure reason to the stored limit. Empty reasons become NULL.
func TruncateReason(reason string) *string {
	if reason == "" {
		return nil
	}
	runes := []rune(reason)
	if len(runes) > maxFailReason {
		reason = string(runes[:maxFailReason])
	}
	return &reason
}

// IsNotFound reports whether err is a missing-row error from any repository.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}
