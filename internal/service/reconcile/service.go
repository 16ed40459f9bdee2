// Package reconcile maps inbound, gateway-agnostic payment confirmations
// to exactly one ticket activation. Confirmations may arrive zero, one, or
// many times, from any gateway, in any order; activation idempotency is
// the only dedup mechanism needed, so the same Confirm is safe from
// return-URL parsing, webhooks, and manual admin approval alike.
package reconcile

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

type Outcome string

const (
	// OutcomeActivated: this confirmation performed the activation.
	OutcomeActivated Outcome = "activated"
	// OutcomeAlreadyActivated: a successful no-op, not an error. Covers
	// duplicate redirects and second confirmations from another gateway.
	OutcomeAlreadyActivated Outcome = "already_activated"
	// OutcomeNotFound: the reference resolves to no ticket.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeExpired: the reservation lapsed before the confirmation
	// landed. The number may already be re-issued, so the ticket is never
	// re-pended; the caller surfaces a manual-reconciliation path.
	OutcomeExpired Outcome = "expired"
)

type Result struct {
	Outcome Outcome
	Ticket  *domain.Ticket
}

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

// Confirm settles one payment confirmation. On a fresh activation the
// accumulated-pool cut is credited in the same transaction, so duplicate
// confirmations cannot double-fund the pool. Storage failures are returned
// as errors; every expected case is encoded in the Result outcome.
//
// Parameters:
//   - ctx: request-scoped context.
//   - externalRef: the ticket code (or internal id) carried by the gateway.
//   - gateway: gateway identifier, used only for logging and metrics.
func (s *Service) Confirm(ctx context.Context, externalRef, gateway string) (Result, error) {
	const op = "service.reconcile.Confirm"

	var res Result

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Store,
		after func(uow.AfterCommit),
	) error {
		t, flipped, err := tx.Tickets().Activate(ctx, externalRef, time.Now().UTC())
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				res = Result{Outcome: OutcomeNotFound}
				return nil
			case errors.Is(err, repository.ErrAlreadyExpired):
				res = Result{Outcome: OutcomeExpired}
				return nil
			default:
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		if !flipped {
			res = Result{Outcome: OutcomeAlreadyActivated, Ticket: t}
			return nil
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

		res = Result{Outcome: OutcomeActivated, Ticket: t}

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
		return Result{}, err
	}

	monitoring.PaymentConfirmed(gateway, string(res.Outcome))

	return res, nil
}
