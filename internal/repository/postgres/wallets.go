package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ganarapp/sorteo/internal/repository"
)

type WalletRepo struct {
	db DB
}

// GetBalance returns the balance for phone, or zero when no account
// exists yet. Accounts are created implicitly by the first credit.
func (r *WalletRepo) GetBalance(ctx context.Context, phone string) (int64, error) {
	const op = "postgres.WalletRepo.GetBalance"

	var balance int64
	err := r.db.QueryRow(ctx,
		`SELECT balance FROM wallets WHERE phone = $1`,
		phone,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return balance, nil
}

func (r *WalletRepo) Credit(ctx context.Context, phone string, amount int64) error {
	const op = "postgres.WalletRepo.Credit"

	_, err := r.db.Exec(ctx,
		`INSERT INTO wallets (phone, balance) VALUES ($1, $2)
		 ON CONFLICT (phone)
		 DO UPDATE SET balance = wallets.balance + EXCLUDED.balance`,
		phone, amount,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Debit subtracts amount as one conditional UPDATE. The balance predicate
// makes sufficiency check and write a single atomic step, so two
// concurrent debits for the same phone cannot both pass a check that only
// covered one of them.
//
// Returns:
//   - error: repository.ErrInsufficientFunds if no account exists or the
//     balance does not cover amount.
func (r *WalletRepo) Debit(ctx context.Context, phone string, amount int64) error {
	const op = "postgres.WalletRepo.Debit"

	tag, err := r.db.Exec(ctx,
		`UPDATE wallets SET balance = balance - $2
		 WHERE phone = $1 AND balance >= $2`,
		phone, amount,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrInsufficientFunds)
	}

	return nil
}
