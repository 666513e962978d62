package repository

import (
	"context"

	"course-settlement/internal/domain/model"
)

// SettingsRepository is the PlatformSettingsStore contract.
type SettingsRepository interface {
	FindByKey(ctx context.Context, key string) (*model.PlatformSetting, error)
	Upsert(ctx context.Context, s *model.PlatformSetting) error
}
