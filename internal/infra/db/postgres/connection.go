package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"course-settlement/internal/infra/metrics"
)

// Connect opens a pool and pings it within five seconds.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database url is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.Connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// ReportPoolStats publishes pool gauges every interval until ctx is done.
func ReportPoolStats(ctx context.Context, pool *pgxpool.Pool, interval time.Duration, log *zerolog.Logger) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s := pool.Stat()
			metrics.SetDBPool(metrics.PoolSnapshot{
				Max:                s.MaxConns(),
				Total:              s.TotalConns(),
				Idle:               s.IdleConns(),
				Acquired:           s.AcquiredConns(),
				AcquireWaitSeconds: s.AcquireDuration().Seconds(),
			})
			log.Debug().Int32("total", s.TotalConns()).Int32("acquired", s.AcquiredConns()).Msg("db pool stats")
		}
	}
}
