package repository

import (
	"context"
	"time"

	"github.com/ganarapp/sorteo/internal/domain"
)

// TicketRepo owns ticket records and the number-uniqueness invariant:
// at most one ticket with a given number may be pending or active.
type TicketRepo interface {
	// Insert stores a new pending ticket. Returns ErrConflict if the
	// number is already held by a non-terminal ticket, or if the code
	// collides.
	Insert(ctx context.Context, t *domain.Ticket) error

	// Activate flips a pending ticket to active and stamps the activation
	// time. The returned bool is true only when this call performed the
	// transition; an already-active ticket is returned unchanged with
	// false. Returns ErrNotFound for an unknown ref and ErrAlreadyExpired
	// when the ticket is expired or redeemed.
	Activate(ctx context.Context, ref string, at time.Time) (*domain.Ticket, bool, error)

	// Expire flips pending tickets older than cutoff to expired and
	// returns how many were reclaimed. Non-pending tickets are untouched.
	Expire(ctx context.Context, cutoff time.Time) (int64, error)

	// IsTaken reports whether a non-terminal ticket currently holds number.
	IsTaken(ctx context.Context, number string) (bool, error)

	// Get resolves ref as either the internal id or the external code.
	Get(ctx context.Context, ref string) (*domain.Ticket, error)

	// UpdateOwner replaces the owner profile. Status, number, and price
	// are never touched.
	UpdateOwner(ctx context.Context, ref string, owner domain.OwnerProfile) error

	// ListByPhone returns the tickets owned by phone, newest first.
	ListByPhone(ctx context.Context, phone string) ([]domain.Ticket, error)

	// FindActiveByNumber returns the active ticket holding number, if any.
	FindActiveByNumber(ctx context.Context, number string) (*domain.Ticket, error)

	// TopBuyers aggregates active tickets per document id, descending.
	TopBuyers(ctx context.Context, limit int) ([]domain.BuyerCount, error)
}

// WalletRepo holds per-phone balances. Balances never go negative.
type WalletRepo interface {
	GetBalance(ctx context.Context, phone string) (int64, error)

	// Credit adds amount unconditionally, creating the account on first use.
	Credit(ctx context.Context, phone string, amount int64) error

	// Debit subtracts amount only if the balance covers it, as one atomic
	// conditional write. Returns ErrInsufficientFunds otherwise.
	Debit(ctx context.Context, phone string, amount int64) error
}

// DrawRepo is append-only: results are inserted once and never updated.
type DrawRepo interface {
	Insert(ctx context.Context, d *domain.DrawResult) error
	List(ctx context.Context, limit int) ([]domain.DrawResult, error)
}

type SettingsRepo interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, s *domain.Settings) error

	// AddToPool atomically increments the accumulated pool.
	AddToPool(ctx context.Context, amount int64) error
}

// Store groups the repositories behind one transactional boundary.
// RunTx runs fn against a transaction-scoped Store and rolls every write
// back when fn returns an error. Calling RunTx on a Store that is already
// transaction-scoped runs fn in the enclosing transaction.
type Store interface {
	Tickets() TicketRepo
	Wallets() WalletRepo
	Draws() DrawRepo
	Settings() SettingsRepo

	RunTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
