package draw

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/repository/memory"
)

// lastWeekday returns the most recent past instance of day.
func lastWeekday(day time.Weekday) time.Time {
	t := time.Now().UTC().AddDate(0, 0, -1)
	for t.Weekday() != day {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

func activeTicket(t *testing.T, store *memory.Store, number string, boughtAt time.Time, boosted bool) *domain.Ticket {
	t.Helper()

	tk := &domain.Ticket{
		ID:         uuid.New(),
		Code:       "GA-" + boughtAt.Format("20060102") + "-" + uuid.NewString()[:4],
		Number:     number,
		OwnerPhone: "3001234567",
		Owner: domain.OwnerProfile{
			FullName:   "Ana Gomez",
			Phone:      "3001234567",
			DocumentID: "CC-1001",
		},
		Price:     5000,
		IsBoosted: boosted,
		Status:    domain.TicketPending,
		CreatedAt: boughtAt,
	}
	require.NoError(t, store.Tickets().Insert(context.Background(), tk))

	_, _, err := store.Tickets().Activate(context.Background(), tk.Code, boughtAt)
	require.NoError(t, err)

	return tk
}

func TestRecordDraw_DailyWinner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store)

	bought := lastWeekday(time.Wednesday)
	ticket := activeTicket(t, store, "1234", bought, false)

	d, err := svc.RecordDraw(ctx, "1234")
	require.NoError(t, err)

	assert.Equal(t, domain.TierDaily, d.PrizeTier)
	assert.Equal(t, memory.DefaultSettings().DailyPrizeAmount, d.PrizeAmount)
	assert.False(t, d.Boosted)
	require.NotNil(t, d.Winner)
	assert.Equal(t, ticket.ID, d.Winner.TicketID)
	assert.Equal(t, "Ana Gomez", d.Winner.FullName)
	assert.Equal(t, "3001234567", d.Winner.Phone)
}

func TestRecordDraw_SaturdayTicketWinsJackpot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store)

	bought := lastWeekday(time.Saturday)
	activeTicket(t, store, "1234", bought, false)

	d, err := svc.RecordDraw(ctx, "1234")
	require.NoError(t, err)

	assert.Equal(t, domain.TierJackpot, d.PrizeTier)
	assert.Equal(t, memory.DefaultSettings().JackpotAmount, d.PrizeAmount)
	assert.False(t, d.Boosted)
}

func TestRecordDraw_BoostedBonusOnJackpotOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store)

	settings := memory.DefaultSettings()

	activeTicket(t, store, "1234", lastWeekday(time.Saturday), true)
	d, err := svc.RecordDraw(ctx, "1234")
	require.NoError(t, err)
	assert.True(t, d.Boosted)
	assert.Equal(t, settings.JackpotAmount+settings.BoostedPrizeAmount, d.PrizeAmount)

	// a boosted ticket on a daily-tier win pays the plain daily amount
	activeTicket(t, store, "5678", lastWeekday(time.Tuesday), true)
	d, err = svc.RecordDraw(ctx, "5678")
	require.NoError(t, err)
	assert.False(t, d.Boosted)
	assert.Equal(t, settings.DailyPrizeAmount, d.PrizeAmount)
}

func TestRecordDraw_NoWinner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store)

	d, err := svc.RecordDraw(ctx, "0000")
	require.NoError(t, err)

	assert.Nil(t, d.Winner)
	assert.Equal(t, "0000", d.WinningNumber)
	assert.NotZero(t, d.PrizeAmount)
}

func TestRecordDraw_PendingTicketDoesNotWin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store)

	tk := &domain.Ticket{
		ID:        uuid.New(),
		Code:      "GA-20250101-AAAA",
		Number:    "1234",
		Price:     5000,
		Status:    domain.TicketPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Tickets().Insert(ctx, tk))

	d, err := svc.RecordDraw(ctx, "1234")
	require.NoError(t, err)
	assert.Nil(t, d.Winner)
}

func TestRecordDraw_SnapshotSurvivesOwnerEdits(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store)

	ticket := activeTicket(t, store, "1234", lastWeekday(time.Monday), false)

	d, err := svc.RecordDraw(ctx, "1234")
	require.NoError(t, err)
	require.NotNil(t, d.Winner)

	err = store.Tickets().UpdateOwner(ctx, ticket.Code, domain.OwnerProfile{
		FullName: "Somebody Else",
	})
	require.NoError(t, err)

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Ana Gomez", history[0].Winner.FullName)
}

func TestRecordDraw_InvalidNumber(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.NewStore())

	for _, number := range []string{"", "123", "12345", "12x4"} {
		_, err := svc.RecordDraw(ctx, number)
		assert.ErrorIs(t, err, ErrInvalidNumber, "number %q", number)
	}
}

func TestHistory_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store)

	for _, n := range []string{"0001", "0002", "0003"} {
		_, err := svc.RecordDraw(ctx, n)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	history, err := svc.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "0003", history[0].WinningNumber)
	assert.Equal(t, "0002", history[1].WinningNumber)
}
