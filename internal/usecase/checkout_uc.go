package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/infra/logging"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	Checkout(ctx context.Context, actor model.Actor, in CheckoutInput) (*CheckoutResult, error)
}

type CheckoutInput struct {
	CourseID      string
	PaymentMethod string
	PaymentType   model.PaymentType
	CouponCode    string
}

type CheckoutResult struct {
	Payment      *model.Payment      `json:"payment"`
	Breakdown    model.FeeBreakdown  `json:"breakdown"`
	Subscription *model.Subscription `json:"subscription,omitempty"`
}

type checkoutUC struct {
	courses repository.CourseCatalog
	subs    repository.SubscriptionRepository
	fees    FeeUseCase
	coupons CouponUseCase
	ledger  PaymentUseCase
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewCheckoutUseCase(courses repository.CourseCatalog, subs repository.SubscriptionRepository, fees FeeUseCase, coupons CouponUseCase, ledger PaymentUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *checkoutUC {
	return &checkoutUC{courses: courses, subs: subs, fees: fees, coupons: coupons, ledger: ledger, tm: tm, log: logger}
}

func (u *checkoutUC) Checkout(ctx context.Context, actor model.Actor, in CheckoutInput) (*CheckoutResult, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.Checkout")()

	if in.PaymentType == "" {
		in.PaymentType = model.PaymentTypeOneTime
	}
	if !in.PaymentType.Valid() || in.CourseID == "" {
		return nil, domain.ErrInvalidArgument
	}
	course, err := u.courses.FindByID(ctx, repository.NoTX, in.CourseID)
	if err != nil {
		return nil, err
	}

	res, err := u.attempt(ctx, actor, course, in)
	if errors.Is(err, domain.ErrCouponExhausted) {
		// Lost the last slot between validation and apply: re-validate once.
		u.log.Info().Str("user_id", actor.UserID).Str("coupon", in.CouponCode).Msg("coupon race lost; retrying checkout once")
		res, err = u.attempt(ctx, actor, course, in)
	}
	return res, err
}

func (u *checkoutUC) attempt(ctx context.Context, actor model.Actor, course *model.Course, in CheckoutInput) (*CheckoutResult, error) {
	discount := decimal.Zero
	var coupon *model.Coupon
	if strings.TrimSpace(in.CouponCode) != "" {
		v, err := u.coupons.Validate(ctx, in.CouponCode, actor.UserID, course.ID, course.Price)
		if err != nil {
			return nil, err
		}
		if !v.IsValid {
			return nil, couponError(v.ErrorKind)
		}
		discount, coupon = v.DiscountAmount, v.Coupon
	}

	b, err := u.fees.Calculate(ctx, course.Price, discount, in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	res := &CheckoutResult{Breakdown: b}
	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.ledger.Create(ctx, tx, actor.UserID, course.ID, in.PaymentType, b)
		if err != nil {
			return err
		}
		res.Payment = p
		if coupon != nil {
			if err := u.coupons.Apply(ctx, tx, coupon.ID, actor.UserID, p.ID, discount); err != nil {
				return err
			}
		}
		if in.PaymentType == model.PaymentTypeSubscription {
			s, err := model.NewSubscription(uuid.NewString(), p.ID, time.Now())
			if err != nil {
				return err
			}
			if err := u.subs.Save(ctx, tx, s); err != nil {
				return err
			}
			res.Subscription = s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("payment_id", res.Payment.ID).Str("user_id", actor.UserID).Str("course_id", course.ID).
		Str("amount", b.FinalAmount.String()).Str("method", string(b.PaymentMethod)).Msg("checkout created")
	return res, nil
}

// couponError turns a validation error kind back into its typed error.
func couponError(code string) error {
	for _, e := range []*domain.Error{
		domain.ErrCouponNotFound,
		domain.ErrCouponExhausted,
		domain.ErrCouponAlreadyUsed,
		domain.ErrCouponNotApplicable,
	} {
		if e.Code == code {
			return e
		}
	}
	return domain.ErrInvalidCoupon
}
