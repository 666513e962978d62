package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

var _ repository.RefundRepository = (*refundRepo)(nil)

type refundRepo struct{ pool *pgxpool.Pool }

func NewRefundRepo(pool *pgxpool.Pool) *refundRepo {
	return &refundRepo{pool: pool}
}

const refundColumns = `id, payment_id, user_id, reason, amount, status, external_refund_id, processed_at, processed_by, notes,
  created_at, updated_at`

func scanRefund(row pgx.Row) (*model.RefundRequest, error) {
	r := &model.RefundRequest{}
	if err := row.Scan(&r.ID, &r.PaymentID, &r.UserID, &r.Reason, &r.Amount, &r.Status, &r.ExternalRefundID,
		&r.ProcessedAt, &r.ProcessedBy, &r.Notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return r, nil
}

// Create inserts a PENDING request. The partial unique index on active
// requests turns a concurrent duplicate into ErrRefundAlreadyRequested.
func (r *refundRepo) Create(ctx context.Context, tx repository.Tx, rr *model.RefundRequest) error {
	const q = `INSERT INTO refund_requests (` + refundColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12);`
	_, err := execSQL(ctx, r.pool, tx, q, rr.ID, rr.PaymentID, rr.UserID, rr.Reason, rr.Amount, rr.Status, rr.ExternalRefundID,
		rr.ProcessedAt, rr.ProcessedBy, rr.Notes, rr.CreatedAt, rr.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "refund_requests_active_payment_idx") {
			return domain.ErrRefundAlreadyRequested
		}
		return mapExecErr(err)
	}
	return nil
}

func (r *refundRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.RefundRequest, error) {
	row, err := pickRow(ctx, r.pool, tx, forUpdate(`SELECT `+refundColumns+` FROM refund_requests WHERE id=$1`, tx), id)
	if err != nil {
		return nil, err
	}
	return scanRefund(row)
}

func (r *refundRepo) FindActiveByPayment(ctx context.Context, tx repository.Tx, paymentID string) (*model.RefundRequest, error) {
	const q = `SELECT ` + refundColumns + ` FROM refund_requests WHERE payment_id=$1 AND status IN ('PENDING','APPROVED')`
	row, err := pickRow(ctx, r.pool, tx, forUpdate(q, tx), paymentID)
	if err != nil {
		return nil, err
	}
	return scanRefund(row)
}

func (r *refundRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.RefundRequest, error) {
	const q = `SELECT ` + refundColumns + ` FROM refund_requests WHERE user_id=$1 ORDER BY created_at DESC;`
	return r.list(ctx, tx, q, userID)
}

func (r *refundRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.RefundStatus, offset, limit int) ([]*model.RefundRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + refundColumns + ` FROM refund_requests WHERE status=$1 ORDER BY created_at ASC OFFSET $2 LIMIT $3;`
	return r.list(ctx, tx, q, status, offset, limit)
}

// UpdateIfStatus stores the snapshot only while the row is still in expected.
func (r *refundRepo) UpdateIfStatus(ctx context.Context, tx repository.Tx, rr *model.RefundRequest, expected model.RefundStatus) (bool, error) {
	const q = `
UPDATE refund_requests
   SET status=$3, external_refund_id=$4, processed_at=$5, processed_by=$6, notes=$7, updated_at=$8
 WHERE id=$1 AND status=$2;`
	cmd, err := execSQL(ctx, r.pool, tx, q, rr.ID, expected, rr.Status, rr.ExternalRefundID, rr.ProcessedAt, rr.ProcessedBy, rr.Notes, rr.UpdatedAt)
	if err != nil {
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *refundRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.RefundRequest, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.RefundRequest
	for rows.Next() {
		rr, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
