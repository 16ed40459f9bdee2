package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ganarapp/sorteo/internal/domain"
	"github.com/ganarapp/sorteo/internal/repository"
)

type TicketRepo struct {
	db DB
}

const ticketColumns = `id, code, number, owner_phone, owner_name, owner_document,
	price, is_boosted, status, created_at, activated_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(
		&t.ID, &t.Code, &t.Number,
		&t.OwnerPhone, &t.Owner.FullName, &t.Owner.DocumentID,
		&t.Price, &t.IsBoosted, &t.Status, &t.CreatedAt, &t.ActivatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Owner.Phone = t.OwnerPhone

	return &t, nil
}

// Insert stores a new pending ticket. The partial unique index on number
// (scoped to pending/active rows) enforces the uniqueness invariant; a
// violation surfaces as repository.ErrConflict.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - t: the ticket to store; status must be pending.
//
// Returns:
//   - error: repository.ErrConflict if the number or code is already held.
func (r *TicketRepo) Insert(ctx context.Context, t *domain.Ticket) error {
	const op = "postgres.TicketRepo.Insert"

	_, err := r.db.Exec(ctx,
		`INSERT INTO tickets (id, code, number, owner_phone, owner_name,
			owner_document, price, is_boosted, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Code, t.Number,
		t.OwnerPhone, t.Owner.FullName, t.Owner.DocumentID,
		t.Price, t.IsBoosted, t.Status, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Activate flips a pending ticket to active. ref may be the internal id or
// the external code. The conditional UPDATE makes re-activation a no-op:
// an already-active ticket is returned unchanged with false.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - ref: internal id or external code of the ticket.
//   - at: activation timestamp to stamp on a fresh transition.
//
// Returns:
//   - *domain.Ticket: the ticket after the call.
//   - bool: true only when this call performed the pending→active flip.
//   - error: repository.ErrNotFound if ref resolves to nothing.
//   - error: repository.ErrAlreadyExpired if the ticket is expired or redeemed.
func (r *TicketRepo) Activate(ctx context.Context, ref string, at time.Time) (*domain.Ticket, bool, error) {
	const op = "postgres.TicketRepo.Activate"

	t, err := scanTicket(r.db.QueryRow(ctx,
		`UPDATE tickets SET status = 'active', activated_at = $2
		 WHERE (code = $1 OR id::text = $1) AND status = 'pending'
		 RETURNING `+ticketColumns,
		ref, at,
	))
	if err == nil {
		return t, true, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	t, err = r.Get(ctx, ref)
	if err != nil {
		return nil, false, fmt.Errorf("%s:%w", op, err)
	}

	if t.Status.Terminal() {
		return nil, false, fmt.Errorf("%s:%w", op, repository.ErrAlreadyExpired)
	}

	return t, false, nil
}

// Expire reclaims pending tickets older than cutoff in one conditional
// UPDATE, so it races safely with a concurrent activation.
func (r *TicketRepo) Expire(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "postgres.TicketRepo.Expire"

	tag, err := r.db.Exec(ctx,
		`UPDATE tickets SET status = 'expired'
		 WHERE status = 'pending' AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return tag.RowsAffected(), nil
}

func (r *TicketRepo) IsTaken(ctx context.Context, number string) (bool, error) {
	const op = "postgres.TicketRepo.IsTaken"

	var taken bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM tickets
			WHERE number = $1 AND status IN ('pending', 'active')
		 )`,
		number,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return taken, nil
}

// Get resolves ref as either the internal id or the external code.
//
// Returns:
//   - *domain.Ticket: the ticket when found.
//   - error: repository.ErrNotFound otherwise.
func (r *TicketRepo) Get(ctx context.Context, ref string) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.Get"

	t, err := scanTicket(r.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		 WHERE code = $1 OR id::text = $1`,
		ref,
	))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return t, nil
}

func (r *TicketRepo) UpdateOwner(ctx context.Context, ref string, owner domain.OwnerProfile) error {
	const op = "postgres.TicketRepo.UpdateOwner"

	tag, err := r.db.Exec(ctx,
		`UPDATE tickets SET owner_name = $2, owner_document = $3
		 WHERE code = $1 OR id::text = $1`,
		ref, owner.FullName, owner.DocumentID,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *TicketRepo) ListByPhone(ctx context.Context, phone string) ([]domain.Ticket, error) {
	const op = "postgres.TicketRepo.ListByPhone"

	rows, err := r.db.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		 WHERE owner_phone = $1
		 ORDER BY created_at DESC`,
		phone,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *TicketRepo) FindActiveByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	const op = "postgres.TicketRepo.FindActiveByNumber"

	t, err := scanTicket(r.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets
		 WHERE number = $1 AND status = 'active'`,
		number,
	))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return t, nil
}

// TopBuyers aggregates active tickets per buyer document id, most tickets
// first. Rows without a document id are skipped: they cannot claim the
// leaderboard prize.
func (r *TicketRepo) TopBuyers(ctx context.Context, limit int) ([]domain.BuyerCount, error) {
	const op = "postgres.TicketRepo.TopBuyers"

	rows, err := r.db.Query(ctx,
		`SELECT owner_document, MAX(owner_name), COUNT(*)
		 FROM tickets
		 WHERE status = 'active' AND owner_document <> ''
		 GROUP BY owner_document
		 ORDER BY COUNT(*) DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.BuyerCount
	for rows.Next() {
		var b domain.BuyerCount
		if err := rows.Scan(&b.DocumentID, &b.FullName, &b.Count); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}
