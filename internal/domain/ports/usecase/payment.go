package usecase

import (
	"context"
	"time"

	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

// PaymentLedger is the single writer of payment status, used by background workers.
type PaymentLedger interface {
	Transition(ctx context.Context, tx repository.Tx, paymentID string, to model.PaymentStatus) (model.TransitionResult, error)
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*model.Payment, error)
}

// OutboxRelay publishes pending domain events.
type OutboxRelay interface {
	RelayOnce(ctx context.Context) (int, error)
}
