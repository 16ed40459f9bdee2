package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/repository"
	redisrepo "github.com/ganarapp/sorteo/internal/repository/redis"
)

const cacheTTL = 30 * time.Second

// Service reads and updates the prize/pricing configuration. Reads go
// through the cache with a singleflight loader; writes invalidate it.
type Service struct {
	store repository.Store
	cache *redisrepo.Cache
}

func New(store repository.Store, cache *redisrepo.Cache) *Service {
	return &Service{store: store, cache: cache}
}

func (s *Service) Get(ctx context.Context) (*domain.Settings, error) {
	const op = "service.settings.Get"

	if s.cache == nil {
		out, err := s.store.Settings().Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return out, nil
	}

	out, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeySettings(), cacheTTL,
		func(ctx context.Context) (*domain.Settings, error) {
			return s.store.Settings().Get(ctx)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) Update(ctx context.Context, set *domain.Settings) error {
	const op = "service.settings.Update"

	if err := s.store.Settings().Update(ctx, set); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateSettings(ctx)
	}

	return nil
}
