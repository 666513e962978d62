package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/adapter"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/infra/metrics"
)

// Compile-time check
var _ OutboxUseCase = (*outboxUC)(nil)

type OutboxUseCase interface {
	// RelayOnce publishes one batch of pending events and returns how many were sent.
	RelayOnce(ctx context.Context) (int, error)
}

type outboxUC struct {
	outbox    repository.OutboxRepository
	publisher adapter.EventPublisher
	batch     int
	log       *zerolog.Logger
}

func NewOutboxUseCase(outbox repository.OutboxRepository, publisher adapter.EventPublisher, batch int, logger *zerolog.Logger) *outboxUC {
	if batch <= 0 {
		batch = 50
	}
	return &outboxUC{outbox: outbox, publisher: publisher, batch: batch, log: logger}
}

func (u *outboxUC) RelayOnce(ctx context.Context) (int, error) {
	events, err := u.outbox.ListPending(ctx, repository.NoTX, u.batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, e := range events {
		if err := u.publisher.Publish(ctx, e.AggregateID, string(e.Type), e.Payload); err != nil {
			metrics.IncOutboxPublished("error")
			u.log.Error().Err(err).Str("event_id", e.ID).Str("type", string(e.Type)).Msg("publish failed; will retry")
			// Keep ordering per batch: stop at the first failure.
			return sent, err
		}
		if err := u.outbox.MarkSent(ctx, repository.NoTX, e.ID, time.Now()); err != nil {
			return sent, err
		}
		metrics.IncOutboxPublished("sent")
		sent++
	}
	return sent, nil
}

// enqueueEvent stores a domain event inside the caller's transaction.
func enqueueEvent(ctx context.Context, outbox repository.OutboxRepository, tx repository.Tx, aggregateID string, typ model.EventType, payload any) error {
	if outbox == nil {
		return nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return outbox.Enqueue(ctx, tx, &model.OutboxEvent{
		ID:          ulid.Make().String(),
		AggregateID: aggregateID,
		Type:        typ,
		Payload:     b,
		Status:      model.OutboxStatusPending,
		CreatedAt:   time.Now(),
	})
}
