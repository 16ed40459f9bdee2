package sweeper

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/repository/memory"
	"github.com/ganarapp/sorteo/internal/service/registry"
)

func TestRun_ReclaimsAbandonedReservations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore()
	reg := registry.New(store, nil, nil, registry.Config{})

	stale := &domain.Ticket{
		ID:        uuid.New(),
		Code:      "GA-20250101-AAAA",
		Number:    "1234",
		Price:     5000,
		Status:    domain.TicketPending,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	require.NoError(t, store.Tickets().Insert(ctx, stale))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sw := New(reg, logger, Config{Interval: 10 * time.Millisecond, TTL: time.Hour})

	done := make(chan struct{})
	go func() {
		_ = sw.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		got, err := store.Tickets().Get(context.Background(), stale.Code)
		return err == nil && got.Status == domain.TicketExpired
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

func TestNew_Defaults(t *testing.T) {
	sw := New(nil, slog.Default(), Config{})
	assert.Equal(t, 5*time.Minute, sw.cfg.Interval)
	assert.Equal(t, time.Hour, sw.cfg.TTL)
}
