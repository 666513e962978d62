package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/infra/logging"
	"course-settlement/internal/infra/metrics"
)

// Compile-time check
var _ CouponUseCase = (*couponUC)(nil)

type CouponUseCase interface {
	// Validate checks a code for a user and amount. Rule failures are reported
	// in the result; only storage failures are returned as errors.
	// courseID may be empty when the caller has no course context.
	Validate(ctx context.Context, code, userID, courseID string, original decimal.Decimal) (model.CouponValidation, error)
	// Apply consumes one redemption slot and records the usage atomically.
	Apply(ctx context.Context, tx repository.Tx, couponID, userID, paymentID string, discount decimal.Decimal) error

	Create(ctx context.Context, actor model.Actor, in CreateCouponInput) (*model.Coupon, error)
	List(ctx context.Context, actor model.Actor, offset, limit int) ([]*model.Coupon, error)
	Deactivate(ctx context.Context, actor model.Actor, id string) (*model.Coupon, error)
}

type CreateCouponInput struct {
	Code          string
	DiscountType  model.DiscountType
	DiscountValue decimal.Decimal
	MaxUses       *int
	ValidFrom     *time.Time // nil = now
	ValidUntil    *time.Time
	CourseID      *string
}

type couponUC struct {
	coupons repository.CouponRepository
	usages  repository.CouponUsageRepository
	courses repository.CourseCatalog
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewCouponUseCase(coupons repository.CouponRepository, usages repository.CouponUsageRepository, courses repository.CourseCatalog, tm repository.TransactionManager, logger *zerolog.Logger) *couponUC {
	return &couponUC{coupons: coupons, usages: usages, courses: courses, tm: tm, log: logger}
}

func (u *couponUC) Validate(ctx context.Context, code, userID, courseID string, original decimal.Decimal) (model.CouponValidation, error) {
	defer logging.TraceDuration(u.log, "CouponUC.Validate")()

	if original.IsNegative() {
		return model.CouponValidation{}, domain.ErrNegativePrice
	}
	invalid := func(e *domain.Error) model.CouponValidation {
		return model.CouponValidation{
			IsValid:        false,
			DiscountAmount: decimal.Zero,
			FinalAmount:    model.Round2(original),
			ErrorKind:      e.Code,
		}
	}

	now := time.Now()
	c, err := u.coupons.FindActiveByCode(ctx, repository.NoTX, model.NormalizeCouponCode(code))
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrCouponNotFound) {
		return invalid(domain.ErrCouponNotFound), nil
	}
	if err != nil {
		return model.CouponValidation{}, err
	}
	if !c.IsValid(now) {
		return invalid(domain.ErrCouponExhausted), nil
	}
	if courseID != "" && !c.AppliesTo(courseID) {
		return invalid(domain.ErrCouponNotApplicable), nil
	}
	used, err := u.usages.Exists(ctx, repository.NoTX, c.ID, userID)
	if err != nil {
		return model.CouponValidation{}, err
	}
	if used {
		return invalid(domain.ErrCouponAlreadyUsed), nil
	}

	discount := c.Discount(original)
	return model.CouponValidation{
		IsValid:        true,
		Coupon:         c,
		DiscountAmount: discount,
		FinalAmount:    model.Round2(model.MaxZero(original.Sub(discount))),
	}, nil
}

func (u *couponUC) Apply(ctx context.Context, tx repository.Tx, couponID, userID, paymentID string, discount decimal.Decimal) error {
	if tx == nil {
		return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			return u.apply(ctx, tx, couponID, userID, paymentID, discount)
		})
	}
	return u.apply(ctx, tx, couponID, userID, paymentID, discount)
}

func (u *couponUC) apply(ctx context.Context, tx repository.Tx, couponID, userID, paymentID string, discount decimal.Decimal) error {
	now := time.Now()
	ok, err := u.coupons.IncrementUsage(ctx, tx, couponID, now)
	if err != nil {
		metrics.IncCouponRedemption("error")
		return err
	}
	if !ok {
		// Validation passed earlier but the last slot went to someone else.
		metrics.IncCouponRedemption("exhausted")
		u.log.Info().Str("coupon_id", couponID).Str("user_id", userID).Msg("coupon exhausted during apply")
		return domain.ErrCouponExhausted
	}
	err = u.usages.Save(ctx, tx, &model.CouponUsage{
		ID:             uuid.NewString(),
		CouponID:       couponID,
		UserID:         userID,
		PaymentID:      paymentID,
		DiscountAmount: discount,
		UsedAt:         now,
	})
	if errors.Is(err, domain.ErrCouponAlreadyUsed) {
		metrics.IncCouponRedemption("already_used")
		return err
	}
	if err != nil {
		metrics.IncCouponRedemption("error")
		return err
	}
	metrics.IncCouponRedemption("applied")
	return nil
}

func (u *couponUC) Create(ctx context.Context, actor model.Actor, in CreateCouponInput) (*model.Coupon, error) {
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleInstructor:
		// Instructors may only discount their own courses.
		if in.CourseID == nil {
			return nil, domain.ErrForbidden
		}
		course, err := u.courses.FindByID(ctx, repository.NoTX, *in.CourseID)
		if err != nil {
			return nil, err
		}
		if course.InstructorID != actor.UserID {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.ErrForbidden
	}

	from := time.Now()
	if in.ValidFrom != nil {
		from = *in.ValidFrom
	}
	c, err := model.NewCoupon(uuid.NewString(), in.Code, in.DiscountType, in.DiscountValue, in.MaxUses, from, in.ValidUntil, in.CourseID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := u.coupons.Create(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	u.log.Info().Str("coupon_id", c.ID).Str("code", c.Code).Str("created_by", actor.UserID).Msg("coupon created")
	return c, nil
}

func (u *couponUC) List(ctx context.Context, actor model.Actor, offset, limit int) ([]*model.Coupon, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return u.coupons.List(ctx, repository.NoTX, nil, offset, limit)
	case model.RoleInstructor:
		return u.coupons.List(ctx, repository.NoTX, &actor.UserID, offset, limit)
	}
	return nil, domain.ErrForbidden
}

func (u *couponUC) Deactivate(ctx context.Context, actor model.Actor, id string) (*model.Coupon, error) {
	c, err := u.coupons.FindByID(ctx, repository.NoTX, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && c.CreatedByID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	now := time.Now()
	if err := u.coupons.Deactivate(ctx, repository.NoTX, id, now); err != nil {
		return nil, err
	}
	out := c.Deactivated(now)
	return &out, nil
}
