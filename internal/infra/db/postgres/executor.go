package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/ports/repository"
)

const pgUniqueViolation = "23505"

// querier is what repositories need from a pool, a pooled conn or a tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// getExecutor resolves repository.Tx. NoTX falls back to the pool.
func getExecutor(pool *pgxpool.Pool, tx repository.Tx) (querier, error) {
	switch v := tx.(type) {
	case nil:
		if pool == nil {
			return nil, domain.ErrInvalidArgument
		}
		return pool, nil
	case pgx.Tx:
		return v, nil
	case *pgxpool.Conn:
		return v, nil
	case *pgxpool.Pool:
		return v, nil
	}
	return nil, domain.ErrInvalidExecContext
}

func execSQL(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, q string, args ...interface{}) (pgconn.CommandTag, error) {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	return ex.Exec(ctx, q, args...)
}

func pickRow(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, q string, args ...interface{}) (pgx.Row, error) {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	return ex.QueryRow(ctx, q, args...), nil
}

func queryRows(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, q string, args ...interface{}) (pgx.Rows, error) {
	ex, err := getExecutor(pool, tx)
	if err != nil {
		return nil, err
	}
	return ex.Query(ctx, q, args...)
}

// isUniqueViolation reports a 23505 error, optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// mapExecErr keeps executor errors and hides driver errors behind ErrOperationFailed.
func mapExecErr(err error) error {
	if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
		return err
	}
	return domain.ErrOperationFailed
}

// mapScanErr turns a missing row into ErrNotFound.
func mapScanErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return domain.ErrReadDatabaseRow
}

// forUpdate appends a row lock when the query runs inside a transaction.
func forUpdate(q string, tx repository.Tx) string {
	if _, ok := tx.(pgx.Tx); ok {
		return q + " FOR UPDATE"
	}
	return q
}
