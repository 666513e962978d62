package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/domain/ports/usecase"
)

// PaymentReconciler periodically cancels PENDING payments whose checkout was
// abandoned. It goes through the ledger so a webhook that lands concurrently
// still wins: the conditional update lets only one of them move the row.
type PaymentReconciler struct {
	ledger     usecase.PaymentLedger
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to expire
	batch      int
	log        *zerolog.Logger
}

func NewPaymentReconciler(ledger usecase.PaymentLedger, interval, staleAfter time.Duration, batch int, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 48 * time.Hour
	}
	if batch <= 0 {
		batch = 100
	}
	return &PaymentReconciler{ledger: ledger, interval: interval, staleAfter: staleAfter, batch: batch, log: logger}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one scan and returns how many payments it cancelled.
func (w *PaymentReconciler) Tick(ctx context.Context) int {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.ledger.ListStale(ctx, cutoff, w.batch)
	if err != nil {
		w.log.Error().Err(err).Msg("payment-reconciler: list stale failed")
		return 0
	}
	cancelled := 0
	for _, p := range pending {
		res, err := w.ledger.Transition(ctx, repository.NoTX, p.ID, model.PaymentStatusCancelled)
		if err != nil {
			w.log.Error().Err(err).Str("payment_id", p.ID).Msg("payment-reconciler: cancel failed")
			continue
		}
		if res.Applied() {
			cancelled++
			w.log.Info().Str("payment_id", p.ID).Time("created_at", p.CreatedAt).Msg("payment-reconciler: stale payment cancelled")
		}
	}
	return cancelled
}
