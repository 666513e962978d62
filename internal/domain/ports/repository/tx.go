package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via `tx`.
//
// Repository methods accept `tx Tx` and detect a live transaction on the
// implementation side (pgx.Tx for Postgres). They MUST accept NoTX (nil) for
// the non-transactional path.
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		res, err := payments.UpdateStatusIf(ctx, tx, id, from, to)
//		...
//		return err
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
