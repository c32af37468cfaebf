package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"table_order_backend/internal/models"
)

// WaitingRepository defines the interface for waiting-list database operations.
type WaitingRepository interface {
	Create(ctx context.Context, executor SQLExecutor, w *models.Waiting) (int64, error)
	GetByID(ctx context.Context, executor SQLExecutor, id int64, forUpdate bool) (*models.Waiting, error)
	HasActivePhone(ctx context.Context, executor SQLExecutor, phone string) (bool, error)
	UpdateStatus(ctx context.Context, executor SQLExecutor, w *models.Waiting) error
	ListActive(ctx context.Context) ([]models.Waiting, error)
	CountWaiting(ctx context.Context, executor SQLExecutor) (int, error)
	CountByStatusSince(ctx context.Context, since time.Time) (map[models.WaitingStatus]int, error)
}

type waitingRepository struct {
	db *sql.DB
}

// NewWaitingRepository creates a new instance of WaitingRepository.
func NewWaitingRepository(db *sql.DB) WaitingRepository {
	return &waitingRepository{db: db}
}

const waitingColumns = `id, name, phone, party_size, status, notes, table_id, created_at, called_at, seated_at, cancelled_at`

func scanWaiting(row scanner) (models.Waiting, error) {
	var w models.Waiting
	err := row.Scan(&w.ID, &w.Name, &w.Phone, &w.PartySize, &w.Status, &w.Notes, &w.TableID,
		&w.CreatedAt, &w.CalledAt, &w.SeatedAt, &w.CancelledAt)
	return w, err
}

// Create inserts a new entry. The partial unique index on active phones turns a
// concurrent duplicate registration into ErrDuplicateKey.
func (r *waitingRepository) Create(ctx context.Context, executor SQLExecutor, w *models.Waiting) (int64, error) {
	query := `INSERT INTO waitings (name, phone, party_size, status, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query, w.Name, w.Phone, w.PartySize, w.Status, w.Notes, w.CreatedAt).Scan(&w.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: phone '%s' is already waiting (constraint: %s)", ErrDuplicateKey, w.Phone, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating waiting entry: %v", ErrDatabaseError, err)
	}
	return w.ID, nil
}

func (r *waitingRepository) GetByID(ctx context.Context, executor SQLExecutor, id int64, forUpdate bool) (*models.Waiting, error) {
	query := `SELECT ` + waitingColumns + ` FROM waitings WHERE id = $1` + lockClause(forUpdate)
	w, err := scanWaiting(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: waiting entry %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: getting waiting entry by ID %d: %v", ErrDatabaseError, id, err)
	}
	return &w, nil
}

func (r *waitingRepository) HasActivePhone(ctx context.Context, executor SQLExecutor, phone string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM waitings WHERE phone = $1 AND status = $2)`
	if err := executor.QueryRowContext(ctx, query, phone, models.WaitingWaiting).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking active phone: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

func (r *waitingRepository) UpdateStatus(ctx context.Context, executor SQLExecutor, w *models.Waiting) error {
	query := `UPDATE waitings
	          SET status = $1, table_id = $2, called_at = $3, seated_at = $4, cancelled_at = $5
	          WHERE id = $6`
	result, err := executor.ExecContext(ctx, query, w.Status, w.TableID, w.CalledAt, w.SeatedAt, w.CancelledAt, w.ID)
	if err != nil {
		return fmt.Errorf("%w: updating waiting entry ID %d: %v", ErrDatabaseError, w.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: waiting entry %d", ErrNotFound, w.ID)
	}
	return nil
}

// ListActive returns waiting and called entries, first come first served.
func (r *waitingRepository) ListActive(ctx context.Context) ([]models.Waiting, error) {
	query := `SELECT ` + waitingColumns + ` FROM waitings
	          WHERE status IN ('waiting', 'called')
	          ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: listing active waiting entries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	list := []models.Waiting{}
	for rows.Next() {
		w, err := scanWaiting(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning waiting entry: %v", ErrDatabaseError, err)
		}
		list = append(list, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating waiting entries: %v", ErrDatabaseError, err)
	}
	return list, nil
}

func (r *waitingRepository) CountWaiting(ctx context.Context, executor SQLExecutor) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM waitings WHERE status = $1`
	if err := executor.QueryRowContext(ctx, query, models.WaitingWaiting).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting waiting entries: %v", ErrDatabaseError, err)
	}
	return count, nil
}

func (r *waitingRepository) CountByStatusSince(ctx context.Context, since time.Time) (map[models.WaitingStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM waitings WHERE created_at >= $1 GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("%w: counting waiting entries by status: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := make(map[models.WaitingStatus]int)
	for rows.Next() {
		var status models.WaitingStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%w: scanning waiting stats: %v", ErrDatabaseError, err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating waiting stats: %v", ErrDatabaseError, err)
	}
	return counts, nil
}
