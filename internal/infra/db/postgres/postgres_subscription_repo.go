package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, payment_id, external_subscription_id, external_customer_id, status, current_period_start,
  current_period_end, cancel_at_period_end, cancelled_at, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `INSERT INTO subscriptions (` + subscriptionColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.PaymentID, s.ExternalSubscriptionID, s.ExternalCustomerID, s.Status,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd, s.CancelledAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrAlreadyExists
		}
		return mapExecErr(err)
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	return r.queryOne(ctx, tx, forUpdate(`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id=$1`, tx), id)
}

func (r *subscriptionRepo) FindByPaymentID(ctx context.Context, tx repository.Tx, paymentID string) (*model.Subscription, error) {
	return r.queryOne(ctx, tx, forUpdate(`SELECT `+subscriptionColumns+` FROM subscriptions WHERE payment_id=$1`, tx), paymentID)
}

func (r *subscriptionRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalID string) (*model.Subscription, error) {
	return r.queryOne(ctx, tx, forUpdate(`SELECT `+subscriptionColumns+` FROM subscriptions WHERE external_subscription_id=$1`, tx), externalID)
}

// Update writes the snapshot unless the stored row is already CANCELLED.
func (r *subscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) (bool, error) {
	const q = `
UPDATE subscriptions
   SET external_subscription_id=$2, external_customer_id=$3, status=$4, current_period_start=$5,
       current_period_end=$6, cancel_at_period_end=$7, cancelled_at=$8, updated_at=$9
 WHERE id=$1 AND status <> 'CANCELLED';`
	cmd, err := execSQL(ctx, r.pool, tx, q, s.ID, s.ExternalSubscriptionID, s.ExternalCustomerID, s.Status,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd, s.CancelledAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "subscriptions_external_id_key") {
			return false, domain.ErrExternalIDConflict
		}
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	if err := row.Scan(&s.ID, &s.PaymentID, &s.ExternalSubscriptionID, &s.ExternalCustomerID, &s.Status,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CancelAtPeriodEnd, &s.CancelledAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return s, nil
}
