package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/monitoring"
	"github.com/ganarapp/sorteo/internal/repository"
	redisrepo "github.com/ganarapp/sorteo/internal/repository/redis"
	"github.com/ganarapp/sorteo/internal/uow"
)

// Service is the per-phone balance ledger. All mutation funnels through
// Credit and PayFromBalance; no other component writes balances.
type Service struct {
	store  repository.Store
	cache  *redisrepo.Cache
	pubsub *redisrepo.TicketsPubSub
	uow    *uow.UoW
}

func New(
	store repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.TicketsPubSub,
) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.New(store),
	}
}

// GetBalance returns the balance for phone; unknown identities read as zero.
func (s *Service) GetBalance(ctx context.Context, phone string) (int64, error) {
	const op = "service.wallet.GetBalance"

	balance, err := s.store.Wallets().GetBalance(ctx, domain.NormalizePhone(phone))
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return balance, nil
}

// Credit adds amount unconditionally. Used for admin top-ups and
// pool-funded bonuses.
func (s *Service) Credit(ctx context.Context, phone string, amount int64) error {
	const op = "service.wallet.Credit"

	if amount <= 0 {
		return fmt.Errorf("%s:%w", op, ErrInvalidAmount)
	}

	if err := s.store.Wallets().Credit(ctx, domain.NormalizePhone(phone), amount); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// PayFromBalance debits phone by amount and activates the referenced
// ticket as one transaction. Debit, activation, and the pool cut either
// all commit or all roll back; a failed activation can never leave the
// wallet debited. The debit itself is a conditional write, so two
// concurrent purchases by the same identity cannot both pass a sufficiency
// check that covered only one of them.
//
// Parameters:
//   - ctx: request-scoped context.
//   - phone: wallet identity, normalized internally.
//   - ticketRef: internal id or external code of the ticket to pay for.
//   - amount: amount due; callers pass the ticket's reserved price.
//
// Returns:
//   - *domain.Ticket: the activated ticket.
//   - error: wallet.ErrInsufficientFunds when the balance does not cover
//     amount; no state is mutated.
//   - error: wallet.ErrAlreadyPaid when the ticket is already active; the
//     debit is rolled back rather than charging twice for one ticket.
//   - error: wallet.ErrActivationFailed for any other activation failure;
//     the debit is rolled back.
func (s *Service) PayFromBalance(
	ctx context.Context,
	phone string,
	ticketRef string,
	amount int64,
) (*domain.Ticket, error) {
	const op = "service.wallet.PayFromBalance"

	if amount <= 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidAmount)
	}

	phone = domain.NormalizePhone(phone)

	var ticket *domain.Ticket

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Store,
		after func(uow.AfterCommit),
	) error {
		if err := tx.Wallets().Debit(ctx, phone, amount); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return fmt.Errorf("%s:%w", op, ErrInsufficientFunds)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		t, flipped, err := tx.Tickets().Activate(ctx, ticketRef, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("%s:%w (%v)", op, ErrActivationFailed, err)
		}
		if !flipped {
			return fmt.Errorf("%s:%w", op, ErrAlreadyPaid)
		}

		settings, err := tx.Settings().Get(ctx)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if cut := t.Price * settings.PoolCutPercent / 100; cut > 0 {
			if err := tx.Settings().AddToPool(ctx, cut); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		ticket = t

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.InvalidateSettings(ctx)
			}
			if s.pubsub != nil {
				_ = s.pubsub.PublishTicketChanged(ctx, t.Number)
			}
		})

		return nil
	})
	if err != nil {
		monitoring.WalletPayment("failed")
		return nil, err
	}

	monitoring.WalletPayment("ok")

	return ticket, nil
}
