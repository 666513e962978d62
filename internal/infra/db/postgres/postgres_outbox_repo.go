package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

var (
	_ repository.OutboxRepository       = (*outboxRepo)(nil)
	_ repository.WebhookInboxRepository = (*webhookInboxRepo)(nil)
)

type outboxRepo struct{ pool *pgxpool.Pool }

func NewOutboxRepo(pool *pgxpool.Pool) *outboxRepo {
	return &outboxRepo{pool: pool}
}

func (r *outboxRepo) Enqueue(ctx context.Context, tx repository.Tx, e *model.OutboxEvent) error {
	const q = `
INSERT INTO outbox_events (id, aggregate_id, type, payload, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	if _, err := execSQL(ctx, r.pool, tx, q, e.ID, e.AggregateID, e.Type, []byte(e.Payload), e.Status, e.CreatedAt); err != nil {
		return mapExecErr(err)
	}
	return nil
}

// ListPending returns unsent events oldest first; ULID ids sort by creation time.
func (r *outboxRepo) ListPending(ctx context.Context, tx repository.Tx, limit int) ([]*model.OutboxEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, aggregate_id, type, payload, status, created_at, sent_at
  FROM outbox_events
 WHERE status='PENDING'
 ORDER BY id ASC
 LIMIT $1;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.OutboxEvent
	for rows.Next() {
		e := &model.OutboxEvent{}
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.Type, &payload, &e.Status, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		e.Payload = payload
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *outboxRepo) MarkSent(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	cmd, err := execSQL(ctx, r.pool, tx, `UPDATE outbox_events SET status='SENT', sent_at=$2 WHERE id=$1;`, id, at)
	if err != nil {
		return mapExecErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type webhookInboxRepo struct{ pool *pgxpool.Pool }

func NewWebhookInboxRepo(pool *pgxpool.Pool) *webhookInboxRepo {
	return &webhookInboxRepo{pool: pool}
}

// Record claims a delivery. false means the same key was processed before.
func (r *webhookInboxRepo) Record(ctx context.Context, tx repository.Tx, provider, eventKey string, receivedAt time.Time) (bool, error) {
	const q = `
INSERT INTO webhook_events (provider, event_key, received_at) VALUES ($1,$2,$3)
ON CONFLICT (provider, event_key) DO NOTHING;`
	cmd, err := execSQL(ctx, r.pool, tx, q, provider, eventKey, receivedAt)
	if err != nil {
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *webhookInboxRepo) SetOutcome(ctx context.Context, tx repository.Tx, provider, eventKey string, outcome model.WebhookOutcome) error {
	const q = `UPDATE webhook_events SET outcome=$3 WHERE provider=$1 AND event_key=$2;`
	if _, err := execSQL(ctx, r.pool, tx, q, provider, eventKey, outcome); err != nil {
		return mapExecErr(err)
	}
	return nil
}
