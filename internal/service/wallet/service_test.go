package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/repository/memory"
	"github.com/ganarapp/sorteo/internal/service/registry"
)

type fixture struct {
	store    *memory.Store
	wallet   *Service
	registry *registry.Service
}

func newFixture() fixture {
	store := memory.NewStore()
	return fixture{
		store:    store,
		wallet:   New(store, nil, nil),
		registry: registry.New(store, nil, nil, registry.Config{}),
	}
}

var buyer = domain.OwnerProfile{FullName: "Ana Gomez", Phone: "3001234567"}

func TestCredit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	require.NoError(t, f.wallet.Credit(ctx, "+57 300 123-4567", 10000))

	// reads normalize the phone the same way
	balance, err := f.wallet.GetBalance(ctx, "57-300-123-4567")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)
}

func TestCredit_RejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	assert.ErrorIs(t, f.wallet.Credit(ctx, "300", 0), ErrInvalidAmount)
	assert.ErrorIs(t, f.wallet.Credit(ctx, "300", -100), ErrInvalidAmount)
}

func TestGetBalance_UnknownPhoneIsZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	balance, err := f.wallet.GetBalance(ctx, "3009999999")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestPayFromBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ticket, err := f.registry.Reserve(ctx, "1234", buyer, false, "")
	require.NoError(t, err)

	require.NoError(t, f.wallet.Credit(ctx, buyer.Phone, ticket.Price))

	paid, err := f.wallet.PayFromBalance(ctx, buyer.Phone, ticket.Code, ticket.Price)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketActive, paid.Status)
	require.NotNil(t, paid.ActivatedAt)

	balance, err := f.wallet.GetBalance(ctx, buyer.Phone)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	// pool funded with the configured cut of the price
	settings, err := f.store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, ticket.Price*settings.PoolCutPercent/100, settings.AccumulatedPool)
}

func TestPayFromBalance_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ticket, err := f.registry.Reserve(ctx, "1234", buyer, false, "")
	require.NoError(t, err)

	require.NoError(t, f.wallet.Credit(ctx, buyer.Phone, ticket.Price-1))

	_, err = f.wallet.PayFromBalance(ctx, buyer.Phone, ticket.Code, ticket.Price)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// nothing moved
	balance, err := f.wallet.GetBalance(ctx, buyer.Phone)
	require.NoError(t, err)
	assert.Equal(t, ticket.Price-1, balance)

	got, err := f.registry.Get(ctx, ticket.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPending, got.Status)
}

func TestPayFromBalance_ActivationFailureRestoresBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	require.NoError(t, f.wallet.Credit(ctx, buyer.Phone, 10000))

	_, err := f.wallet.PayFromBalance(ctx, buyer.Phone, "GA-20250101-ZZZZ", 5000)
	require.ErrorIs(t, err, ErrActivationFailed)

	balance, err := f.wallet.GetBalance(ctx, buyer.Phone)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)
}

func TestPayFromBalance_AlreadyActiveRollsBackDebit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ticket, err := f.registry.Reserve(ctx, "1234", buyer, false, "")
	require.NoError(t, err)

	_, _, err = f.registry.Activate(ctx, ticket.Code)
	require.NoError(t, err)

	require.NoError(t, f.wallet.Credit(ctx, buyer.Phone, 10000))

	_, err = f.wallet.PayFromBalance(ctx, buyer.Phone, ticket.Code, ticket.Price)
	require.ErrorIs(t, err, ErrAlreadyPaid)

	balance, err := f.wallet.GetBalance(ctx, buyer.Phone)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)
}

func TestPayFromBalance_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.wallet.PayFromBalance(ctx, buyer.Phone, "GA-20250101-AAAA", 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}
