package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// Transactor runs a unit of work in one database transaction.
type Transactor interface {
	// Executor returns a non-transactional executor for plain reads.
	Executor() SQLExecutor
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(executor SQLExecutor) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor backed by db.
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) Executor() SQLExecutor {
	return t.db
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(executor SQLExecutor) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback() // Rollback is a no-op once committed

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrDatabaseError, err)
	}
	return nil
}
