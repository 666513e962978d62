package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-settlement/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*TxManager)(nil)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"

	txAttempts = 3
)

// TxManager runs use-case callbacks inside one pgx transaction. Serialization
// failures and deadlocks re-run the whole callback, so fn must not keep state
// outside the transaction between attempts.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

func (m *TxManager) WithTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = m.once(ctx, opts, fn)
		if !retryableTxErr(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (m *TxManager) once(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func retryableTxErr(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}
