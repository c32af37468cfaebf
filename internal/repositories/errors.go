package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"table_order_backend/internal/models"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = fmt.Errorf("requested record %w", models.ErrNotFound)

	// ErrDatabaseError is returned for unexpected database errors.
	// Every driver failure is a persistence failure to the layers above.
	ErrDatabaseError = fmt.Errorf("database error: %w", models.ErrPersistence)

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = fmt.Errorf("duplicate key value violates unique constraint: %w", models.ErrConflict)
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
// This allows for generic scanning helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return pqErr, true
	}
	return nil, false
}

func isForeignKeyViolation(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
		return pqErr, true
	}
	return nil, false
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}
