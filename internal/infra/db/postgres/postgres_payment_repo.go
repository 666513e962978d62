package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, course_id, external_payment_id, external_order_id, amount, currency, status, payment_type,
  payment_method, gateway_provider, gateway_fee_amount, platform_fee_amount, instructor_amount, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.UserID, &p.CourseID, &p.ExternalPaymentID, &p.ExternalOrderID, &p.Amount, &p.Currency,
		&p.Status, &p.PaymentType, &p.PaymentMethod, &p.GatewayProvider, &p.GatewayFeeAmount, &p.PlatformFeeAmount,
		&p.InstructorAmount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return p, nil
}

// Save inserts a new payment. Status changes go through UpdateStatusIf only.
func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16);`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.CourseID, p.ExternalPaymentID, p.ExternalOrderID, p.Amount, p.Currency,
		p.Status, p.PaymentType, p.PaymentMethod, p.GatewayProvider, p.GatewayFeeAmount, p.PlatformFeeAmount,
		p.InstructorAmount, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrAlreadyExists
		}
		return mapExecErr(err)
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.Payment, error) {
	q := forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE external_payment_id=$1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, externalID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// UpdateStatusIf moves the payment only while it is still in `from`. The
// boolean is false when another writer got there first.
func (r *paymentRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from, to model.PaymentStatus, at time.Time) (bool, error) {
	const q = `UPDATE payments SET status=$3, updated_at=$4 WHERE id=$1 AND status=$2;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, from, to, at)
	if err != nil {
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}

// AttachExternalID binds a gateway id once. Re-attaching the same id reports true.
func (r *paymentRepo) AttachExternalID(ctx context.Context, tx repository.Tx, id, externalID string, at time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET external_payment_id=$2, updated_at=$3
 WHERE id=$1 AND (external_payment_id IS NULL OR external_payment_id=$2);`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, externalID, at)
	if err != nil {
		if isUniqueViolation(err, "payments_external_payment_id_key") {
			return false, nil
		}
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='PENDING' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
