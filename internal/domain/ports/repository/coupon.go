package repository

import (
	"context"
	"time"

	"course-settlement/internal/domain/model"
)

type CouponRepository interface {
	Create(ctx context.Context, tx Tx, c *model.Coupon) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Coupon, error)
	// FindActiveByCode looks up a coupon with is_active set by normalized code.
	// Window and usage checks are left to the caller.
	FindActiveByCode(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
	List(ctx context.Context, tx Tx, createdBy *string, offset, limit int) ([]*model.Coupon, error)
	Deactivate(ctx context.Context, tx Tx, id string, at time.Time) error
	// IncrementUsage is the atomic "used_count+1 where used_count < max_uses".
	// false means no slot was left.
	IncrementUsage(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)
}

type CouponUsageRepository interface {
	// Save returns domain.ErrCouponAlreadyUsed when (user, coupon) already exists.
	Save(ctx context.Context, tx Tx, u *model.CouponUsage) error
	Exists(ctx context.Context, tx Tx, couponID, userID string) (bool, error)
}
