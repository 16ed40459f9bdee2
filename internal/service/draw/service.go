package draw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/monitoring"
	"github.com/ganarapp/sorteo/internal/repository"
	"github.com/ganarapp/sorteo/internal/uow"
)

var ErrInvalidNumber = errors.New("winning number must be exactly 4 digits")

// JackpotDay is the purchase weekday that qualifies a ticket for the
// jackpot pool instead of the daily one.
const JackpotDay = time.Saturday

type Service struct {
	store repository.Store
	uow   *uow.UoW
}

func New(store repository.Store) *Service {
	return &Service{store: store, uow: uow.New(store)}
}

// RecordDraw resolves winningNumber against the active tickets and
// persists an immutable result. The winner's identity fields are copied by
// value; later edits to the ticket cannot change a recorded draw. Callers
// must not invoke this twice for the same intended draw — the engine does
// not dedupe by date.
//
// Tier: a winning ticket bought on Saturday pays the jackpot pool, any
// other day the daily pool. A boosted winner additionally receives the
// boosted pool amount on a jackpot-tier win. With no matching active
// ticket, the tier is classified from the draw date and the result carries
// no winner snapshot.
func (s *Service) RecordDraw(ctx context.Context, winningNumber string) (*domain.DrawResult, error) {
	const op = "service.draw.RecordDraw"

	if len(winningNumber) != 4 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidNumber)
	}
	for _, r := range winningNumber {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%s:%w", op, ErrInvalidNumber)
		}
	}

	var result *domain.DrawResult

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Store,
		after func(uow.AfterCommit),
	) error {
		settings, err := tx.Settings().Get(ctx)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		now := time.Now().UTC()
		d := &domain.DrawResult{
			ID:            uuid.New(),
			DrawnAt:       now,
			WinningNumber: winningNumber,
		}

		winner, err := tx.Tickets().FindActiveByNumber(ctx, winningNumber)
		switch {
		case err == nil:
			d.PrizeTier = classifyTier(winner.CreatedAt)
			d.PrizeAmount = prizeFor(d.PrizeTier, settings)
			if winner.IsBoosted && d.PrizeTier == domain.TierJackpot {
				d.PrizeAmount += settings.BoostedPrizeAmount
				d.Boosted = true
			}
			d.Winner = &domain.WinnerSnapshot{
				TicketID: winner.ID,
				Code:     winner.Code,
				Number:   winner.Number,
				FullName: winner.Owner.FullName,
				Phone:    winner.OwnerPhone,
			}
		case errors.Is(err, repository.ErrNotFound):
			d.PrizeTier = classifyTier(now)
			d.PrizeAmount = prizeFor(d.PrizeTier, settings)
		default:
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := tx.Draws().Insert(ctx, d); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		result = d

		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.DrawRecorded(string(result.PrizeTier), result.Winner != nil)

	return result, nil
}

func (s *Service) History(ctx context.Context, limit int) ([]domain.DrawResult, error) {
	const op = "service.draw.History"

	if limit <= 0 {
		limit = 50
	}

	out, err := s.store.Draws().List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func classifyTier(purchasedAt time.Time) domain.PrizeTier {
	if purchasedAt.UTC().Weekday() == JackpotDay {
		return domain.TierJackpot
	}
	return domain.TierDaily
}

func prizeFor(tier domain.PrizeTier, settings *domain.Settings) int64 {
	if tier == domain.TierJackpot {
		return settings.JackpotAmount
	}
	return settings.DailyPrizeAmount
}
