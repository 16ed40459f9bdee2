package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/repository"
)

func newTicket(number, phone string) *domain.Ticket {
	now := time.Now().UTC()
	return &domain.Ticket{
		ID:         uuid.New(),
		Code:       "GA-" + now.Format("20060102") + "-" + uuid.NewString()[:4],
		Number:     number,
		OwnerPhone: phone,
		Owner:      domain.OwnerProfile{FullName: "Test Buyer", Phone: phone},
		Price:      5000,
		Status:     domain.TicketPending,
		CreatedAt:  now,
	}
}

func TestInsert_RejectsLiveDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Tickets().Insert(ctx, newTicket("1234", "111")))

	err := store.Tickets().Insert(ctx, newTicket("1234", "222"))
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestInsert_AllowsNumberAfterTerminalState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := newTicket("1234", "111")
	require.NoError(t, store.Tickets().Insert(ctx, first))

	// sweep the holder out of the way
	n, err := store.Tickets().Expire(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.Tickets().Insert(ctx, newTicket("1234", "222")))
}

func TestActivate_Transitions(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	ticket := newTicket("4321", "111")
	require.NoError(t, store.Tickets().Insert(ctx, ticket))

	at := time.Now().UTC()

	got, flipped, err := store.Tickets().Activate(ctx, ticket.Code, at)
	require.NoError(t, err)
	assert.True(t, flipped)
	assert.Equal(t, domain.TicketActive, got.Status)
	require.NotNil(t, got.ActivatedAt)
	assert.Equal(t, at, *got.ActivatedAt)

	// second activation is a no-op, not an error
	got, flipped, err = store.Tickets().Activate(ctx, ticket.Code, at.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, flipped)
	assert.Equal(t, at, *got.ActivatedAt)

	_, _, err = store.Tickets().Activate(ctx, "GA-20250101-ZZZZ", at)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestActivate_ExpiredTicket(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	ticket := newTicket("4321", "111")
	require.NoError(t, store.Tickets().Insert(ctx, ticket))

	_, err := store.Tickets().Expire(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)

	_, _, err = store.Tickets().Activate(ctx, ticket.Code, time.Now().UTC())
	require.ErrorIs(t, err, repository.ErrAlreadyExpired)
}

func TestActivate_ResolvesByID(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	ticket := newTicket("7777", "111")
	require.NoError(t, store.Tickets().Insert(ctx, ticket))

	got, flipped, err := store.Tickets().Activate(ctx, ticket.ID.String(), time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, flipped)
	assert.Equal(t, ticket.Code, got.Code)
}

func TestExpire_OnlyStalePending(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	stale := newTicket("1111", "111")
	stale.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, store.Tickets().Insert(ctx, stale))

	fresh := newTicket("2222", "111")
	require.NoError(t, store.Tickets().Insert(ctx, fresh))

	active := newTicket("3333", "111")
	active.CreatedAt = stale.CreatedAt
	require.NoError(t, store.Tickets().Insert(ctx, active))
	_, _, err := store.Tickets().Activate(ctx, active.Code, time.Now().UTC())
	require.NoError(t, err)

	n, err := store.Tickets().Expire(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.Tickets().Get(ctx, stale.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketExpired, got.Status)

	got, err = store.Tickets().Get(ctx, active.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketActive, got.Status)
}

func TestWallet_DebitInsufficient(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Wallets().Credit(ctx, "555", 1000))

	err := store.Wallets().Debit(ctx, "555", 1500)
	require.ErrorIs(t, err, repository.ErrInsufficientFunds)

	balance, err := store.Wallets().GetBalance(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}

func TestRunTx_RollsBackEveryWrite(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	ticket := newTicket("9999", "555")
	require.NoError(t, store.Tickets().Insert(ctx, ticket))
	require.NoError(t, store.Wallets().Credit(ctx, "555", 10000))

	boom := errors.New("boom")

	err := store.RunTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Wallets().Debit(ctx, "555", 10000); err != nil {
			return err
		}
		if _, _, err := tx.Tickets().Activate(ctx, ticket.Code, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Settings().AddToPool(ctx, 500); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, err := store.Wallets().GetBalance(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)

	got, err := store.Tickets().Get(ctx, ticket.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPending, got.Status)

	settings, err := store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), settings.AccumulatedPool)
}

func TestRunTx_NestedJoinsEnclosing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.RunTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.RunTx(ctx, func(ctx context.Context, inner repository.Store) error {
			return inner.Wallets().Credit(ctx, "555", 100)
		})
	})
	require.NoError(t, err)

	balance, err := store.Wallets().GetBalance(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestTopBuyers_OrdersByActiveCount(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	add := func(number, doc string, activate bool) {
		tk := newTicket(number, "111")
		tk.Owner.DocumentID = doc
		require.NoError(t, store.Tickets().Insert(ctx, tk))
		if activate {
			_, _, err := store.Tickets().Activate(ctx, tk.Code, time.Now().UTC())
			require.NoError(t, err)
		}
	}

	add("0001", "doc-a", true)
	add("0002", "doc-a", true)
	add("0003", "doc-b", true)
	add("0004", "doc-b", false) // pending does not count

	out, err := store.Tickets().TopBuyers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "doc-a", out[0].DocumentID)
	assert.Equal(t, int64(2), out[0].Count)
	assert.Equal(t, "doc-b", out[1].DocumentID)
	assert.Equal(t, int64(1), out[1].Count)
}
