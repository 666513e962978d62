package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

// Compile-time check
var _ BalanceUseCase = (*balanceUC)(nil)

type BalanceUseCase interface {
	Get(ctx context.Context, actor model.Actor, instructorID string) (*model.InstructorBalance, error)
}

type balanceUC struct {
	balances repository.BalanceRepository
	settings SettingsUseCase
	log      *zerolog.Logger
}

func NewBalanceUseCase(balances repository.BalanceRepository, settings SettingsUseCase, logger *zerolog.Logger) *balanceUC {
	return &balanceUC{balances: balances, settings: settings, log: logger}
}

func (u *balanceUC) Get(ctx context.Context, actor model.Actor, instructorID string) (*model.InstructorBalance, error) {
	if instructorID == "" {
		instructorID = actor.UserID
	}
	if instructorID != actor.UserID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if actor.Role != model.RoleInstructor && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	bal, err := u.balances.Balance(ctx, repository.NoTX, instructorID)
	if err != nil {
		return nil, err
	}
	minPayout, err := u.settings.MinimumPayout(ctx)
	if err != nil {
		return nil, err
	}
	return &model.InstructorBalance{
		InstructorID:   instructorID,
		Balance:        model.Round2(bal),
		MinimumPayout:  minPayout,
		PayoutEligible: bal.GreaterThanOrEqual(minPayout),
	}, nil
}
