package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/infra/metrics"
)

var _ repository.SettingsRepository = (*SettingsCache)(nil)

// SettingsCache keeps platform settings in memory for a short TTL. Misses
// (including absent keys) always go to the store.
type SettingsCache struct {
	next  repository.SettingsRepository
	cache *expirable.LRU[string, model.PlatformSetting]
}

func NewSettingsCache(next repository.SettingsRepository, size int, ttl time.Duration) *SettingsCache {
	if size <= 0 {
		size = 64
	}
	return &SettingsCache{
		next:  next,
		cache: expirable.NewLRU[string, model.PlatformSetting](size, nil, ttl),
	}
}

func (c *SettingsCache) FindByKey(ctx context.Context, key string) (*model.PlatformSetting, error) {
	if v, ok := c.cache.Get(key); ok {
		metrics.IncSettingsCache("hit")
		return &v, nil
	}
	metrics.IncSettingsCache("miss")
	s, err := c.next.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, *s)
	return s, nil
}

func (c *SettingsCache) Upsert(ctx context.Context, s *model.PlatformSetting) error {
	if err := c.next.Upsert(ctx, s); err != nil {
		return err
	}
	c.cache.Remove(s.Key)
	return nil
}
