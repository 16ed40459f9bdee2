package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/repository/memory"
	"github.com/ganarapp/sorteo/internal/service/registry"
)

func newFixture() (*Service, *registry.Service, *memory.Store) {
	store := memory.NewStore()
	return New(store, nil, nil), registry.New(store, nil, nil, registry.Config{}), store
}

var buyer = domain.OwnerProfile{FullName: "Ana Gomez", Phone: "3001234567"}

func TestConfirm_ActivatesPending(t *testing.T) {
	ctx := context.Background()
	svc, reg, store := newFixture()

	ticket, err := reg.Reserve(ctx, "1234", buyer, false, "")
	require.NoError(t, err)

	res, err := svc.Confirm(ctx, ticket.Code, "mercadopago")
	require.NoError(t, err)
	assert.Equal(t, OutcomeActivated, res.Outcome)
	require.NotNil(t, res.Ticket)
	assert.Equal(t, domain.TicketActive, res.Ticket.Status)

	settings, err := store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, ticket.Price*settings.PoolCutPercent/100, settings.AccumulatedPool)
}

func TestConfirm_DuplicateDoesNotDoubleFundPool(t *testing.T) {
	ctx := context.Background()
	svc, reg, store := newFixture()

	ticket, err := reg.Reserve(ctx, "1234", buyer, false, "")
	require.NoError(t, err)

	res, err := svc.Confirm(ctx, ticket.Code, "mercadopago")
	require.NoError(t, err)
	assert.Equal(t, OutcomeActivated, res.Outcome)

	// same confirmation again, and once more from another gateway
	res, err = svc.Confirm(ctx, ticket.Code, "mercadopago")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyActivated, res.Outcome)

	res, err = svc.Confirm(ctx, ticket.Code, "wompi")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyActivated, res.Outcome)

	settings, err := store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, ticket.Price*settings.PoolCutPercent/100, settings.AccumulatedPool)
}

func TestConfirm_UnknownReference(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFixture()

	res, err := svc.Confirm(ctx, "GA-20250101-ZZZZ", "wompi")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Nil(t, res.Ticket)
}

func TestConfirm_LapsedReservationStaysExpired(t *testing.T) {
	ctx := context.Background()
	svc, reg, store := newFixture()

	ticket, err := reg.Reserve(ctx, "1234", buyer, false, "")
	require.NoError(t, err)

	_, err = store.Tickets().Expire(ctx, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)

	res, err := svc.Confirm(ctx, ticket.Code, "mercadopago")
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpired, res.Outcome)

	// the late confirmation never re-pends the ticket
	got, err := reg.Get(ctx, ticket.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketExpired, got.Status)

	settings, err := store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), settings.AccumulatedPool)
}

func TestConfirm_ResolvesByInternalID(t *testing.T) {
	ctx := context.Background()
	svc, reg, _ := newFixture()

	ticket, err := reg.Reserve(ctx, "1234", buyer, false, "")
	require.NoError(t, err)

	res, err := svc.Confirm(ctx, ticket.ID.String(), "manual")
	require.NoError(t, err)
	assert.Equal(t, OutcomeActivated, res.Outcome)
}
