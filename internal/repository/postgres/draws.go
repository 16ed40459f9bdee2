package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ganarapp/sorteo/internal/domain"
)

// DrawRepo is append-only: rows are inserted once and never updated, so a
// recorded draw cannot be altered after the fact.
type DrawRepo struct {
	db DB
}

func (r *DrawRepo) Insert(ctx context.Context, d *domain.DrawResult) error {
	const op = "postgres.DrawRepo.Insert"

	var (
		winnerTicketID, winnerCode, winnerNumber *string
		winnerName, winnerPhone                  *string
	)
	if d.Winner != nil {
		id := d.Winner.TicketID.String()
		winnerTicketID = &id
		winnerCode = &d.Winner.Code
		winnerNumber = &d.Winner.Number
		winnerName = &d.Winner.FullName
		winnerPhone = &d.Winner.Phone
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO draws (id, drawn_at, winning_number, prize_tier,
			prize_amount, boosted, winner_ticket_id, winner_code,
			winner_number, winner_name, winner_phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.DrawnAt, d.WinningNumber, d.PrizeTier,
		d.PrizeAmount, d.Boosted, winnerTicketID, winnerCode,
		winnerNumber, winnerName, winnerPhone,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *DrawRepo) List(ctx context.Context, limit int) ([]domain.DrawResult, error) {
	const op = "postgres.DrawRepo.List"

	rows, err := r.db.Query(ctx,
		`SELECT id, drawn_at, winning_number, prize_tier, prize_amount,
			boosted, winner_ticket_id, winner_code, winner_number,
			winner_name, winner_phone
		 FROM draws
		 ORDER BY drawn_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.DrawResult
	for rows.Next() {
		var (
			d                                    domain.DrawResult
			winnerTicketID, winnerCode, winnerNo *string
			winnerName, winnerPhone              *string
		)
		err := rows.Scan(
			&d.ID, &d.DrawnAt, &d.WinningNumber, &d.PrizeTier,
			&d.PrizeAmount, &d.Boosted, &winnerTicketID, &winnerCode,
			&winnerNo, &winnerName, &winnerPhone,
		)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		if winnerTicketID != nil {
			w := domain.WinnerSnapshot{
				Code:     *winnerCode,
				Number:   *winnerNo,
				FullName: *winnerName,
				Phone:    *winnerPhone,
			}
			if id, err := uuid.Parse(*winnerTicketID); err == nil {
				w.TicketID = id
			}
			d.Winner = &w
		}

		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}
