package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

var _ repository.SettingsRepository = (*settingsRepo)(nil)

type settingsRepo struct{ pool *pgxpool.Pool }

func NewSettingsRepo(pool *pgxpool.Pool) *settingsRepo {
	return &settingsRepo{pool: pool}
}

func (r *settingsRepo) FindByKey(ctx context.Context, key string) (*model.PlatformSetting, error) {
	row, err := pickRow(ctx, r.pool, nil, `SELECT key, value, type FROM platform_settings WHERE key=$1;`, key)
	if err != nil {
		return nil, err
	}
	s := &model.PlatformSetting{}
	if err := row.Scan(&s.Key, &s.Value, &s.Type); err != nil {
		return nil, mapScanErr(err)
	}
	return s, nil
}

func (r *settingsRepo) Upsert(ctx context.Context, s *model.PlatformSetting) error {
	const q = `
INSERT INTO platform_settings (key, value, type) VALUES ($1,$2,$3)
ON CONFLICT (key) DO UPDATE SET value=$2, type=$3;`
	if _, err := execSQL(ctx, r.pool, nil, q, s.Key, s.Value, s.Type); err != nil {
		return mapExecErr(err)
	}
	return nil
}
