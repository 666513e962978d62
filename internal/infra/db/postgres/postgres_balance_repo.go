package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

var _ repository.BalanceRepository = (*balanceRepo)(nil)

type balanceRepo struct{ pool *pgxpool.Pool }

func NewBalanceRepo(pool *pgxpool.Pool) *balanceRepo {
	return &balanceRepo{pool: pool}
}

// AddEntry is idempotent per (payment_id, kind).
func (r *balanceRepo) AddEntry(ctx context.Context, tx repository.Tx, e *model.BalanceEntry) (bool, error) {
	const q = `
INSERT INTO instructor_balance_entries (id, instructor_id, payment_id, kind, amount, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (payment_id, kind) DO NOTHING;`
	cmd, err := execSQL(ctx, r.pool, tx, q, e.ID, e.InstructorID, e.PaymentID, e.Kind, e.Amount, e.CreatedAt)
	if err != nil {
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *balanceRepo) Balance(ctx context.Context, tx repository.Tx, instructorID string) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM instructor_balance_entries WHERE instructor_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, instructorID)
	if err != nil {
		return decimal.Zero, err
	}
	var sum decimal.Decimal
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
