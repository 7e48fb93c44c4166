// Package repository provides data access for the lead lifecycle engine.
// Every query is scoped by organization_id as its first filter; tenant
// isolation is structural, not advisory.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("lead not found")
	ErrStageNotFound     = errors.New("stage not found")
	ErrRuleNotFound      = errors.New("routing rule not found")
	ErrReasonNotFound    = errors.New("disqualification reason not found")
	ErrContactNotFound   = errors.New("contact not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrFrameworkNotFound = errors.New("qualification framework not found")
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx so repository methods
// run unchanged inside transactions.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is the engine's data access layer.
type Repository struct {
	pool *pgxpool.Pool
	db   Querier
}

// New creates a repository over a connection pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// WithTx returns a repository whose queries run on the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{pool: r.pool, db: tx}
}

// InTx runs fn inside a transaction; the transaction commits only if fn
// returns nil. Multi-entity writes (conversion, stage transitions) go through
// here so partial failures are never visible.
func (r *Repository) InTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	if err := fn(r.WithTx(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
