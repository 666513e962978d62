package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"course-settlement/internal/domain/model"
)

type BalanceRepository interface {
	// AddEntry inserts unless (payment_id, kind) exists; reports whether it inserted.
	AddEntry(ctx context.Context, tx Tx, e *model.BalanceEntry) (bool, error)
	Balance(ctx context.Context, tx Tx, instructorID string) (decimal.Decimal, error)
}
