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

var (
	_ repository.CouponRepository      = (*couponRepo)(nil)
	_ repository.CouponUsageRepository = (*couponUsageRepo)(nil)
)

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

const couponColumns = `id, code, discount_type, discount_value, max_uses, used_count, valid_from, valid_until, is_active,
  course_id, created_by_id, created_at, updated_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	c := &model.Coupon{}
	if err := row.Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MaxUses, &c.UsedCount, &c.ValidFrom,
		&c.ValidUntil, &c.IsActive, &c.CourseID, &c.CreatedByID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return c, nil
}

func (r *couponRepo) Create(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	const q = `INSERT INTO coupons (` + couponColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13);`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Code, c.DiscountType, c.DiscountValue, c.MaxUses, c.UsedCount, c.ValidFrom,
		c.ValidUntil, c.IsActive, c.CourseID, c.CreatedByID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "coupons_code_key") {
			return domain.ErrCouponCodeTaken
		}
		return mapExecErr(err)
	}
	return nil
}

func (r *couponRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+couponColumns+` FROM coupons WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanCoupon(row)
}

// FindActiveByCode filters on is_active only; window and usage checks belong to the caller.
func (r *couponRepo) FindActiveByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+couponColumns+` FROM coupons WHERE code=$1 AND is_active;`, code)
	if err != nil {
		return nil, err
	}
	return scanCoupon(row)
}

func (r *couponRepo) List(ctx context.Context, tx repository.Tx, createdBy *string, offset, limit int) ([]*model.Coupon, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT ` + couponColumns + `
  FROM coupons
 WHERE ($1::text IS NULL OR created_by_id=$1)
 ORDER BY created_at DESC
 OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, createdBy, offset, limit)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *couponRepo) Deactivate(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	cmd, err := execSQL(ctx, r.pool, tx, `UPDATE coupons SET is_active=FALSE, updated_at=$2 WHERE id=$1;`, id, at)
	if err != nil {
		return mapExecErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementUsage takes one use if the coupon is still active, in its window and
// below max_uses. The row lock taken by UPDATE serialises concurrent redeemers.
func (r *couponRepo) IncrementUsage(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	const q = `
UPDATE coupons
   SET used_count = used_count + 1, updated_at = $2
 WHERE id = $1
   AND is_active
   AND valid_from <= $2
   AND (valid_until IS NULL OR valid_until > $2)
   AND (max_uses IS NULL OR used_count < max_uses);`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}

type couponUsageRepo struct{ pool *pgxpool.Pool }

func NewCouponUsageRepo(pool *pgxpool.Pool) *couponUsageRepo {
	return &couponUsageRepo{pool: pool}
}

func (r *couponUsageRepo) Save(ctx context.Context, tx repository.Tx, u *model.CouponUsage) error {
	const q = `
INSERT INTO coupon_usages (id, coupon_id, user_id, payment_id, discount_amount, used_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.CouponID, u.UserID, u.PaymentID, u.DiscountAmount, u.UsedAt)
	if err != nil {
		if isUniqueViolation(err, "coupon_usages_coupon_user_key") {
			return domain.ErrCouponAlreadyUsed
		}
		return mapExecErr(err)
	}
	return nil
}

func (r *couponUsageRepo) Exists(ctx context.Context, tx repository.Tx, couponID, userID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM coupon_usages WHERE coupon_id=$1 AND user_id=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, couponID, userID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}
