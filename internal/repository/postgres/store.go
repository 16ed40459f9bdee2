package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ganarapp/sorteo/internal/repository"
)

// DB is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so repos can
// run against either the pool or an open transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store is the Postgres-backed repository.Store. A zero db means the Store
// runs against the pool; RunTx hands fn a copy bound to the transaction.
type Store struct {
	pool *pgxpool.Pool
	db   DB
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) handle() DB {
	if s.db != nil {
		return s.db
	}
	return s.pool
}

func (s *Store) Tickets() repository.TicketRepo   { return &TicketRepo{db: s.handle()} }
func (s *Store) Wallets() repository.WalletRepo   { return &WalletRepo{db: s.handle()} }
func (s *Store) Draws() repository.DrawRepo       { return &DrawRepo{db: s.handle()} }
func (s *Store) Settings() repository.SettingsRepo { return &SettingsRepo{db: s.handle()} }

// RunTx runs fn inside a serializable read-write transaction. A nested call
// joins the enclosing transaction instead of opening a new one.
func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Store) error,
) error {
	const op = "postgres.Store.RunTx"

	if s.db != nil {
		return fn(ctx, s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, &Store{pool: s.pool, db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// IsRetryable reports whether the error is a serialization failure or
// deadlock that the caller may retry.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}

	return false
}
