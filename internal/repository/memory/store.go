// Package memory provides an in-memory repository.Store used by tests and
// by local runs without a database. It mirrors the transactional guarantees
// of the Postgres store: RunTx snapshots the state up front and restores it
// when the callback fails, so every error path rolls back completely.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/repository"
)

type data struct {
	tickets  map[uuid.UUID]*domain.Ticket
	byCode   map[string]uuid.UUID
	wallets  map[string]int64
	draws    []domain.DrawResult
	settings domain.Settings
}

func (d *data) clone() *data {
	cp := &data{
		tickets:  make(map[uuid.UUID]*domain.Ticket, len(d.tickets)),
		byCode:   make(map[string]uuid.UUID, len(d.byCode)),
		wallets:  make(map[string]int64, len(d.wallets)),
		draws:    make([]domain.DrawResult, len(d.draws)),
		settings: d.settings,
	}

	for id, t := range d.tickets {
		cp.tickets[id] = copyTicket(t)
	}
	for code, id := range d.byCode {
		cp.byCode[code] = id
	}
	for phone, bal := range d.wallets {
		cp.wallets[phone] = bal
	}
	copy(cp.draws, d.draws)

	return cp
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	cp := *t
	if t.ActivatedAt != nil {
		at := *t.ActivatedAt
		cp.ActivatedAt = &at
	}
	return &cp
}

// Store is the in-memory repository.Store. All access is serialized by one
// mutex; a transaction-scoped view shares the mutex owner's lock.
type Store struct {
	mu   *sync.Mutex
	data *data
	inTx bool
}

// DefaultSettings matches the seed row of migrations/001_init.sql.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		TicketPrice:        5000,
		BoostMultiplier:    2,
		JackpotAmount:      50000000,
		DailyPrizeAmount:   200000,
		BoostedPrizeAmount: 1250000,
		AccumulatedPool:    0,
		PoolCutPercent:     10,
	}
}

func NewStore() *Store {
	return &Store{
		mu: &sync.Mutex{},
		data: &data{
			tickets:  make(map[uuid.UUID]*domain.Ticket),
			byCode:   make(map[string]uuid.UUID),
			wallets:  make(map[string]int64),
			settings: DefaultSettings(),
		},
	}
}

func (s *Store) Tickets() repository.TicketRepo    { return &ticketRepo{s} }
func (s *Store) Wallets() repository.WalletRepo    { return &walletRepo{s} }
func (s *Store) Draws() repository.DrawRepo        { return &drawRepo{s} }
func (s *Store) Settings() repository.SettingsRepo { return &settingsRepo{s} }

// RunTx serializes fn against all other store access and restores the
// pre-transaction snapshot when fn fails.
func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Store) error,
) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.data.clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true}

	if err := fn(ctx, tx); err != nil {
		*s.data = *backup
		return err
	}

	return nil
}

// lock acquires the store mutex unless the caller already holds it through
// an open transaction. Returns the matching unlock.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
