package postgres

import (
	"context"
	"fmt"

	"github.com/ganarapp/sorteo/internal/domain"
)

// SettingsRepo reads and writes the single prize-configuration row.
type SettingsRepo struct {
	db DB
}

func (r *SettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	const op = "postgres.SettingsRepo.Get"

	var s domain.Settings
	err := r.db.QueryRow(ctx,
		`SELECT ticket_price, boost_multiplier, jackpot_amount,
			daily_prize_amount, boosted_prize_amount, accumulated_pool,
			pool_cut_percent
		 FROM settings WHERE id = 1`,
	).Scan(
		&s.TicketPrice, &s.BoostMultiplier, &s.JackpotAmount,
		&s.DailyPrizeAmount, &s.BoostedPrizeAmount, &s.AccumulatedPool,
		&s.PoolCutPercent,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &s, nil
}

func (r *SettingsRepo) Update(ctx context.Context, s *domain.Settings) error {
	const op = "postgres.SettingsRepo.Update"

	_, err := r.db.Exec(ctx,
		`UPDATE settings SET ticket_price = $1, boost_multiplier = $2,
			jackpot_amount = $3, daily_prize_amount = $4,
			boosted_prize_amount = $5, accumulated_pool = $6,
			pool_cut_percent = $7
		 WHERE id = 1`,
		s.TicketPrice, s.BoostMultiplier, s.JackpotAmount,
		s.DailyPrizeAmount, s.BoostedPrizeAmount, s.AccumulatedPool,
		s.PoolCutPercent,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *SettingsRepo) AddToPool(ctx context.Context, amount int64) error {
	const op = "postgres.SettingsRepo.AddToPool"

	_, err := r.db.Exec(ctx,
		`UPDATE settings SET accumulated_pool = accumulated_pool + $1
		 WHERE id = 1`,
		amount,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
