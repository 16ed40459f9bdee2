package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/repository"
)

type walletRepo struct {
	s *Store
}

func (r *walletRepo) GetBalance(ctx context.Context, phone string) (int64, error) {
	defer r.s.lock()()

	return r.s.data.wallets[phone], nil
}

func (r *walletRepo) Credit(ctx context.Context, phone string, amount int64) error {
	defer r.s.lock()()

	r.s.data.wallets[phone] += amount

	return nil
}

func (r *walletRepo) Debit(ctx context.Context, phone string, amount int64) error {
	const op = "memory.walletRepo.Debit"

	defer r.s.lock()()

	if r.s.data.wallets[phone] < amount {
		return fmt.Errorf("%s:%w", op, repository.ErrInsufficientFunds)
	}

	r.s.data.wallets[phone] -= amount

	return nil
}

type drawRepo struct {
	s *Store
}

func (r *drawRepo) Insert(ctx context.Context, d *domain.DrawResult) error {
	defer r.s.lock()()

	cp := *d
	if d.Winner != nil {
		w := *d.Winner
		cp.Winner = &w
	}
	r.s.data.draws = append(r.s.data.draws, cp)

	return nil
}

func (r *drawRepo) List(ctx context.Context, limit int) ([]domain.DrawResult, error) {
	defer r.s.lock()()

	out := make([]domain.DrawResult, 0, len(r.s.data.draws))
	for _, d := range r.s.data.draws {
		cp := d
		if d.Winner != nil {
			w := *d.Winner
			cp.Winner = &w
		}
		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].DrawnAt.After(out[j].DrawnAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

type settingsRepo struct {
	s *Store
}

func (r *settingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	defer r.s.lock()()

	cp := r.s.data.settings
	return &cp, nil
}

func (r *settingsRepo) Update(ctx context.Context, set *domain.Settings) error {
	defer r.s.lock()()

	r.s.data.settings = *set
	return nil
}

func (r *settingsRepo) AddToPool(ctx context.Context, amount int64) error {
	defer r.s.lock()()

	r.s.data.settings.AccumulatedPool += amount
	return nil
}
