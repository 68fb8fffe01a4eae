// Package store is the hand-written pgx data access layer. Every domain
// service declares the narrow interface it needs and Store satisfies it, so
// tests can stub queries without a database.
package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store executes queries against the provided connection source.
type Store struct {
	db DBTX
}

// New constructs a Store bound to a pool or connection.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// WithTx returns a Store bound to the transaction.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx}
}
