package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/repository"
)

type ticketRepo struct {
	s *Store
}

// resolve looks up ref as a code first, then as an id. Caller holds the lock.
func (r *ticketRepo) resolve(ref string) *domain.Ticket {
	if id, ok := r.s.data.byCode[ref]; ok {
		return r.s.data.tickets[id]
	}
	if id, err := uuid.Parse(ref); err == nil {
		return r.s.data.tickets[id]
	}
	return nil
}

func (r *ticketRepo) Insert(ctx context.Context, t *domain.Ticket) error {
	const op = "memory.ticketRepo.Insert"

	defer r.s.lock()()

	if _, ok := r.s.data.byCode[t.Code]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}
	for _, existing := range r.s.data.tickets {
		if existing.Number == t.Number && !existing.Status.Terminal() {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
	}

	cp := copyTicket(t)
	r.s.data.tickets[cp.ID] = cp
	r.s.data.byCode[cp.Code] = cp.ID

	return nil
}

func (r *ticketRepo) Activate(ctx context.Context, ref string, at time.Time) (*domain.Ticket, bool, error) {
	const op = "memory.ticketRepo.Activate"

	defer r.s.lock()()

	t := r.resolve(ref)
	if t == nil {
		return nil, false, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	switch t.Status {
	case domain.TicketActive:
		return copyTicket(t), false, nil
	case domain.TicketPending:
		t.Status = domain.TicketActive
		stamp := at
		t.ActivatedAt = &stamp
		return copyTicket(t), true, nil
	default:
		return nil, false, fmt.Errorf("%s:%w", op, repository.ErrAlreadyExpired)
	}
}

func (r *ticketRepo) Expire(ctx context.Context, cutoff time.Time) (int64, error) {
	defer r.s.lock()()

	var n int64
	for _, t := range r.s.data.tickets {
		if t.Status == domain.TicketPending && t.CreatedAt.Before(cutoff) {
			t.Status = domain.TicketExpired
			n++
		}
	}

	return n, nil
}

func (r *ticketRepo) IsTaken(ctx context.Context, number string) (bool, error) {
	defer r.s.lock()()

	for _, t := range r.s.data.tickets {
		if t.Number == number && !t.Status.Terminal() {
			return true, nil
		}
	}

	return false, nil
}

func (r *ticketRepo) Get(ctx context.Context, ref string) (*domain.Ticket, error) {
	const op = "memory.ticketRepo.Get"

	defer r.s.lock()()

	t := r.resolve(ref)
	if t == nil {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return copyTicket(t), nil
}

func (r *ticketRepo) UpdateOwner(ctx context.Context, ref string, owner domain.OwnerProfile) error {
	const op = "memory.ticketRepo.UpdateOwner"

	defer r.s.lock()()

	t := r.resolve(ref)
	if t == nil {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	t.Owner.FullName = owner.FullName
	t.Owner.DocumentID = owner.DocumentID

	return nil
}

func (r *ticketRepo) ListByPhone(ctx context.Context, phone string) ([]domain.Ticket, error) {
	defer r.s.lock()()

	var out []domain.Ticket
	for _, t := range r.s.data.tickets {
		if t.OwnerPhone == phone {
			out = append(out, *copyTicket(t))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *ticketRepo) FindActiveByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	const op = "memory.ticketRepo.FindActiveByNumber"

	defer r.s.lock()()

	for _, t := range r.s.data.tickets {
		if t.Number == number && t.Status == domain.TicketActive {
			return copyTicket(t), nil
		}
	}

	return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
}

func (r *ticketRepo) TopBuyers(ctx context.Context, limit int) ([]domain.BuyerCount, error) {
	defer r.s.lock()()

	counts := make(map[string]*domain.BuyerCount)
	for _, t := range r.s.data.tickets {
		if t.Status != domain.TicketActive || t.Owner.DocumentID == "" {
			continue
		}
		b, ok := counts[t.Owner.DocumentID]
		if !ok {
			b = &domain.BuyerCount{
				DocumentID: t.Owner.DocumentID,
				FullName:   t.Owner.FullName,
			}
			counts[t.Owner.DocumentID] = b
		}
		b.Count++
	}

	out := make([]domain.BuyerCount, 0, len(counts))
	for _, b := range counts {
		out = append(out, *b)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].DocumentID < out[j].DocumentID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}
