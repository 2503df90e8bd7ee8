package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// WithTx runs fn inside one transaction and commits when fn succeeds. The
// deferred rollback covers errors and panics in fn and is a no-op after
// commit.
func WithTx(ctx context.Context, db DB, fn func(pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
