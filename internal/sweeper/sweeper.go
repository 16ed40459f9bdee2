// Package sweeper reclaims 4-digit numbers held by abandoned reservations.
// It is advisory cleanup: the uniqueness invariant already prevents a
// double sale, the sweep only frees numbers for new buyers.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/ganarapp/sorteo/internal/service/registry"
)

type Config struct {
	// Interval between sweeps.
	Interval time.Duration
	// TTL is how long a reservation may stay pending before reclaim.
	TTL time.Duration
}

type Sweeper struct {
	registry *registry.Service
	logger   *slog.Logger
	cfg      Config
}

func New(reg *registry.Service, logger *slog.Logger, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	return &Sweeper{registry: reg, logger: logger, cfg: cfg}
}

// Run sweeps on a ticker until ctx is cancelled. An individual sweep
// failure is logged and the loop continues; the next tick retries.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.registry.ExpireStale(ctx, s.cfg.TTL)
	if err != nil {
		s.logger.Error("sweep failed", "error", err)
		return
	}

	if n > 0 {
		s.logger.Info("reclaimed stale reservations", "count", n, "ttl", s.cfg.TTL)
	}
}
