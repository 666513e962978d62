package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/infra/logging"
)

// Compile-time check
var _ FeeUseCase = (*feeUC)(nil)

// FeeUseCase wraps the pure breakdown with the runtime platform fee.
type FeeUseCase interface {
	Calculate(ctx context.Context, price, discount decimal.Decimal, method string) (model.FeeBreakdown, error)
	// Compare returns every method's breakdown, cheapest gateway fee first.
	Compare(ctx context.Context, price, discount decimal.Decimal) ([]model.FeeBreakdown, error)
	// Cheapest is the first row of Compare.
	Cheapest(ctx context.Context, price, discount decimal.Decimal) (model.FeeBreakdown, error)
}

type feeUC struct {
	settings SettingsUseCase
	policy   model.UnknownMethodPolicy
	log      *zerolog.Logger
}

func NewFeeUseCase(settings SettingsUseCase, policy model.UnknownMethodPolicy, logger *zerolog.Logger) *feeUC {
	if policy == "" {
		policy = model.UnknownMethodCheapest
	}
	return &feeUC{settings: settings, policy: policy, log: logger}
}

func (u *feeUC) Calculate(ctx context.Context, price, discount decimal.Decimal, method string) (model.FeeBreakdown, error) {
	defer logging.TraceDuration(u.log, "FeeUC.Calculate")()

	pct, err := u.settings.PlatformFeePercentage(ctx)
	if err != nil {
		return model.FeeBreakdown{}, err
	}
	b, err := model.ComputeBreakdown(price, discount, model.NormalizePaymentMethod(method), pct, u.policy)
	if err != nil {
		return model.FeeBreakdown{}, err
	}
	if b.MethodFallback {
		u.log.Warn().Str("requested", method).Str("used", string(b.PaymentMethod)).Msg("unknown payment method; fell back to cheapest")
	}
	return b, nil
}

func (u *feeUC) Compare(ctx context.Context, price, discount decimal.Decimal) ([]model.FeeBreakdown, error) {
	pct, err := u.settings.PlatformFeePercentage(ctx)
	if err != nil {
		return nil, err
	}
	return model.CompareMethods(price, discount, pct)
}

func (u *feeUC) Cheapest(ctx context.Context, price, discount decimal.Decimal) (model.FeeBreakdown, error) {
	rows, err := u.Compare(ctx, price, discount)
	if err != nil {
		return model.FeeBreakdown{}, err
	}
	if len(rows) == 0 {
		return model.FeeBreakdown{}, domain.ErrUnknownPaymentMethod
	}
	return rows[0], nil
}
