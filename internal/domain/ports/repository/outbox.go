package repository

import (
	"context"
	"time"

	"course-settlement/internal/domain/model"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, tx Tx, e *model.OutboxEvent) error
	ListPending(ctx context.Context, tx Tx, limit int) ([]*model.OutboxEvent, error)
	MarkSent(ctx context.Context, tx Tx, id string, at time.Time) error
}

// WebhookInboxRepository deduplicates gateway deliveries by (provider, event key).
type WebhookInboxRepository interface {
	// Record inserts the key and reports false when it was already recorded.
	Record(ctx context.Context, tx Tx, provider, eventKey string, receivedAt time.Time) (bool, error)
	SetOutcome(ctx context.Context, tx Tx, provider, eventKey string, outcome model.WebhookOutcome) error
}
