package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

// Compile-time check
var _ SettingsUseCase = (*settingsUC)(nil)

// SettingsUseCase exposes typed platform settings with documented defaults.
type SettingsUseCase interface {
	PlatformFeePercentage(ctx context.Context) (decimal.Decimal, error)
	RefundDaysLimit(ctx context.Context) (int, error)
	MinimumPayout(ctx context.Context) (decimal.Decimal, error)
}

type settingsUC struct {
	store repository.SettingsRepository
	log   *zerolog.Logger
}

func NewSettingsUseCase(store repository.SettingsRepository, logger *zerolog.Logger) *settingsUC {
	return &settingsUC{store: store, log: logger}
}

func (u *settingsUC) PlatformFeePercentage(ctx context.Context) (decimal.Decimal, error) {
	def := decimal.RequireFromString(model.DefaultPlatformFeePercentage)
	v, err := u.number(ctx, model.SettingPlatformFeePercentage, def)
	if err != nil {
		return decimal.Zero, err
	}
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
		u.log.Warn().Str("key", model.SettingPlatformFeePercentage).Str("value", v.String()).Msg("setting out of range; using default")
		return def, nil
	}
	return v, nil
}

func (u *settingsUC) RefundDaysLimit(ctx context.Context) (int, error) {
	v, err := u.number(ctx, model.SettingRefundDaysLimit, decimal.NewFromInt(model.DefaultRefundDaysLimit))
	if err != nil {
		return 0, err
	}
	if v.IsNegative() {
		return model.DefaultRefundDaysLimit, nil
	}
	return int(v.IntPart()), nil
}

func (u *settingsUC) MinimumPayout(ctx context.Context) (decimal.Decimal, error) {
	return u.number(ctx, model.SettingMinimumPayout, decimal.RequireFromString(model.DefaultMinimumPayout))
}

// number reads a NUMBER setting. Absent or malformed values fall back to def;
// only store failures are returned.
func (u *settingsUC) number(ctx context.Context, key string, def decimal.Decimal) (decimal.Decimal, error) {
	s, err := u.store.FindByKey(ctx, key)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && s == nil) {
		return def, nil
	}
	if err != nil {
		u.log.Error().Err(err).Str("key", key).Msg("failed to read platform setting")
		return decimal.Zero, err
	}
	if s.Type != "" && s.Type != model.SettingNumber {
		u.log.Warn().Str("key", key).Str("type", string(s.Type)).Msg("setting is not numeric; using default")
		return def, nil
	}
	v, perr := decimal.NewFromString(s.Value)
	if perr != nil {
		u.log.Warn().Str("key", key).Str("value", s.Value).Msg("malformed numeric setting; using default")
		return def, nil
	}
	return v, nil
}
