package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/beckershow/colaborador-portal/internal/domain"
)

const globalDefaultsKey = "feedback:global_defaults"

type cachedSettingsRepository struct {
	next  SettingsRepository
	local *cache.Cache
}

// NewCachedSettingsRepository keeps the global defaults in process memory for
// ttl. Saves through this repository refresh the cached copy. A non-positive
// ttl disables caching.
func NewCachedSettingsRepository(next SettingsRepository, ttl time.Duration) SettingsRepository {
	if ttl <= 0 {
		return next
	}
	return &cachedSettingsRepository{
		next:  next,
		local: cache.New(ttl, 2*ttl),
	}
}

func (r *cachedSettingsRepository) GetGlobalDefaults(ctx context.Context) (domain.GlobalDefaults, error) {
	if v, ok := r.local.Get(globalDefaultsKey); ok {
		if defaults, ok := v.(domain.GlobalDefaults); ok {
			return defaults, nil
		}
	}
	defaults, err := r.next.GetGlobalDefaults(ctx)
	if err != nil {
		return domain.GlobalDefaults{}, err
	}
	r.local.SetDefault(globalDefaultsKey, defaults)
	return defaults, nil
}

func (r *cachedSettingsRepository) SaveGlobalDefaults(ctx context.Context, defaults domain.GlobalDefaults) (domain.GlobalDefaults, error) {
	r.local.Delete(globalDefaultsKey)
	saved, err := r.next.SaveGlobalDefaults(ctx, defaults)
	if err != nil {
		return domain.GlobalDefaults{}, err
	}
	r.local.SetDefault(globalDefaultsKey, saved)
	return saved, nil
}
