package registry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/monitoring"
	"github.com/ganarapp/sorteo/internal/repository"
	redisrepo "github.com/ganarapp/sorteo/internal/repository/redis"
	"github.com/ganarapp/sorteo/internal/uow"
)

type Config struct {
	// MaxRandomAttempts bounds the retry loop of ReserveRandom.
	MaxRandomAttempts int
}

// Service is the ticket registry: it owns reservation, activation, expiry,
// and every read over ticket records.
type Service struct {
	store   repository.Store
	pubsub  *redisrepo.TicketsPubSub
	limiter *redisrepo.SlidingWindowLimiter
	uow     *uow.UoW
	cfg     Config
}

func New(
	store repository.Store,
	pubsub *redisrepo.TicketsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Service {
	if cfg.MaxRandomAttempts <= 0 {
		cfg.MaxRandomAttempts = 25
	}

	return &Service{
		store:   store,
		pubsub:  pubsub,
		limiter: limiter,
		uow:     uow.New(store),
		cfg:     cfg,
	}
}

// Reserve allocates number to the given buyer as a pending ticket. The
// price is read from settings inside the same transaction as the insert
// and fixed on the ticket; it is never recomputed later, so a settings
// change mid-flow cannot drift the amount due.
//
// Parameters:
//   - ctx: request-scoped context.
//   - number: the 4-digit number to reserve.
//   - owner: buyer identity captured at purchase time.
//   - boosted: opts the ticket into the boosted prize pool at the
//     configured price multiplier.
//   - rlKey: rate-limit key, usually the caller's IP; empty disables.
//
// Returns:
//   - *domain.Ticket: the new pending ticket.
//   - error: registry.ErrNumberTaken if a live ticket already holds number.
//   - error: registry.ErrInvalidNumber for a malformed number.
//   - error: registry.ErrRateLimited when the caller is over the window.
func (s *Service) Reserve(
	ctx context.Context,
	number string,
	owner domain.OwnerProfile,
	boosted bool,
	rlKey string,
) (*domain.Ticket, error) {
	const op = "service.registry.Reserve"

	if !validNumber(number) {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidNumber)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, _, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w", op, ErrRateLimited)
		}
	}

	owner.Phone = domain.NormalizePhone(owner.Phone)

	var ticket *domain.Ticket

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Store,
		after func(uow.AfterCommit),
	) error {
		settings, err := tx.Settings().Get(ctx)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		price := settings.TicketPrice
		if boosted {
			price *= settings.BoostMultiplier
		}

		now := time.Now().UTC()
		t := &domain.Ticket{
			ID:         uuid.New(),
			Code:       newCode(now),
			Number:     number,
			OwnerPhone: owner.Phone,
			Owner:      owner,
			Price:      price,
			IsBoosted:  boosted,
			Status:     domain.TicketPending,
			CreatedAt:  now,
		}

		if err := tx.Tickets().Insert(ctx, t); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s:%w", op, ErrNumberTaken)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		ticket = t

		after(func(ctx context.Context) {
			if s.pubsub != nil {
				_ = s.pubsub.PublishTicketChanged(ctx, t.Number)
			}
		})

		return nil
	})
	if err != nil {
		monitoring.TicketReserved("chosen", "conflict")
		return nil, err
	}

	monitoring.TicketReserved("chosen", "ok")

	return ticket, nil
}

// ReserveRandom picks a free 4-digit number at random, retrying a bounded
// number of times before reporting exhaustion. Each attempt goes through
// Reserve, so losing a race for a candidate just burns one attempt.
func (s *Service) ReserveRandom(
	ctx context.Context,
	owner domain.OwnerProfile,
	boosted bool,
	rlKey string,
) (*domain.Ticket, error) {
	const op = "service.registry.ReserveRandom"

	for i := 0; i < s.cfg.MaxRandomAttempts; i++ {
		t, err := s.Reserve(ctx, randomNumber(), owner, boosted, rlKey)
		if err != nil {
			if errors.Is(err, ErrNumberTaken) {
				continue
			}
			return nil, err
		}

		monitoring.TicketReserved("random", "ok")

		return t, nil
	}

	monitoring.TicketReserved("random", "exhausted")

	return nil, fmt.Errorf("%s:%w", op, ErrNumberSpaceExhausted)
}

// Activate flips a pending ticket to active. Idempotent: re-activating an
// already-active ticket returns the current record without side effects.
//
// Returns:
//   - *domain.Ticket: the ticket after the call.
//   - bool: whether this call performed the transition.
//   - error: registry.ErrTicketNotFound or registry.ErrTicketExpired.
func (s *Service) Activate(ctx context.Context, ref string) (*domain.Ticket, bool, error) {
	const op = "service.registry.Activate"

	var (
		ticket  *domain.Ticket
		flipped bool
	)

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Store,
		after func(uow.AfterCommit),
	) error {
		t, f, err := tx.Tickets().Activate(ctx, ref, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("%s:%w", op, translateErr(err))
		}

		ticket, flipped = t, f

		if f {
			after(func(ctx context.Context) {
				if s.pubsub != nil {
					_ = s.pubsub.PublishTicketChanged(ctx, t.Number)
				}
			})
		}

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return ticket, flipped, nil
}

// ExpireStale reclaims pending tickets older than ttl. Activation racing
// with the sweep is safe: the repository transition is conditional, so a
// ticket that went active in between is left alone.
func (s *Service) ExpireStale(ctx context.Context, ttl time.Duration) (int64, error) {
	const op = "service.registry.ExpireStale"

	n, err := s.store.Tickets().Expire(ctx, time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	if n > 0 {
		monitoring.TicketsExpired(n)
	}

	return n, nil
}

func (s *Service) IsTaken(ctx context.Context, number string) (bool, error) {
	const op = "service.registry.IsTaken"

	if !validNumber(number) {
		return false, fmt.Errorf("%s:%w", op, ErrInvalidNumber)
	}

	taken, err := s.store.Tickets().IsTaken(ctx, number)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, err)
	}

	return taken, nil
}

func (s *Service) Get(ctx context.Context, ref string) (*domain.Ticket, error) {
	const op = "service.registry.Get"

	t, err := s.store.Tickets().Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateErr(err))
	}

	return t, nil
}

// UpdateOwner replaces the buyer profile on a ticket (owner claim / KYC
// completion). Number, price, and status are untouched.
func (s *Service) UpdateOwner(ctx context.Context, ref string, owner domain.OwnerProfile) error {
	const op = "service.registry.UpdateOwner"

	owner.Phone = domain.NormalizePhone(owner.Phone)

	if err := s.store.Tickets().UpdateOwner(ctx, ref, owner); err != nil {
		return fmt.Errorf("%s:%w", op, translateErr(err))
	}

	return nil
}

func (s *Service) ListByPhone(ctx context.Context, phone string) ([]domain.Ticket, error) {
	const op = "service.registry.ListByPhone"

	out, err := s.store.Tickets().ListByPhone(ctx, domain.NormalizePhone(phone))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) TopBuyers(ctx context.Context, limit int) ([]domain.BuyerCount, error) {
	const op = "service.registry.TopBuyers"

	if limit <= 0 {
		limit = 10
	}

	out, err := s.store.Tickets().TopBuyers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func translateErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrTicketNotFound
	case errors.Is(err, repository.ErrAlreadyExpired):
		return ErrTicketExpired
	default:
		return err
	}
}

func validNumber(number string) bool {
	if len(number) != 4 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newCode builds the external reference in the GA-YYYYMMDD-XXXX shape used
// on printed tickets and QR codes.
func newCode(now time.Time) string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = codeCharset[int(b[i])%len(codeCharset)]
	}

	return fmt.Sprintf("GA-%s-%s", now.Format("20060102"), string(b))
}

func randomNumber() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = '0' + b[i]%10
	}

	return string(b)
}
