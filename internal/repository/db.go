package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type scanner interface {
	Scan(dest ...any) error
}

// WithTx runs fn in a transaction and commits only when fn succeeds. Any
// error rolls back everything fn wrote.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("WithTx: begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("WithTx: commit: %w", err)
	}
	return nil
}
