package outbox

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"course-settlement/internal/domain/ports/usecase"
)

// Relay drains the outbox on a fixed interval. A failed batch is simply
// retried on the next tick; delivery is at least once.
type Relay struct {
	uc       usecase.OutboxRelay
	interval time.Duration
	log      *zerolog.Logger
}

func NewRelay(uc usecase.OutboxRelay, interval time.Duration, logger *zerolog.Logger) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{uc: uc, interval: interval, log: logger}
}

func (r *Relay) Start(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drain(ctx)
		}
	}
}

// drain keeps relaying full batches until the outbox is empty or a batch fails.
func (r *Relay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := r.uc.RelayOnce(ctx)
		if err != nil {
			r.log.Warn().Err(err).Int("sent", n).Msg("outbox relay: batch interrupted")
			return
		}
		if n == 0 {
			return
		}
		r.log.Debug().Int("sent", n).Msg("outbox relay: batch published")
	}
}
