package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"table_order_backend/internal/models"

	"github.com/lib/pq"
)

// MenuRepository defines the interface for menu catalog database operations.
type MenuRepository interface {
	CreateItem(ctx context.Context, executor SQLExecutor, item *models.MenuItem) (int64, error)
	GetItemByID(ctx context.Context, id int64) (*models.MenuItem, error)
	GetItems(ctx context.Context, filters models.MenuFilters) ([]models.MenuItem, error)
	GetItemsByIDs(ctx context.Context, executor SQLExecutor, ids []int64) (map[int64]models.MenuItem, error)
	UpdateItem(ctx context.Context, executor SQLExecutor, item *models.MenuItem) error
	SetActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error
	CountItems(ctx context.Context) (int, error)
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

const menuColumns = `id, name, price, category, is_active, description, image_ref, created_at, updated_at`

func scanMenuItem(row scanner) (models.MenuItem, error) {
	var item models.MenuItem
	err := row.Scan(&item.ID, &item.Name, &item.Price, &item.Category, &item.IsActive,
		&item.Description, &item.ImageRef, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (r *menuRepository) CreateItem(ctx context.Context, executor SQLExecutor, item *models.MenuItem) (int64, error) {
	query := `INSERT INTO menu_items (name, price, category, is_active, description, image_ref, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	err := executor.QueryRowContext(ctx, query,
		item.Name, item.Price, item.Category, item.IsActive, item.Description, item.ImageRef, now, now,
	).Scan(&item.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return 0, fmt.Errorf("%w: menu item name '%s' already exists (constraint: %s)", ErrDuplicateKey, item.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating menu item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *menuRepository) GetItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`
	item, err := scanMenuItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return &item, nil
}

func (r *menuRepository) GetItems(ctx context.Context, filters models.MenuFilters) ([]models.MenuItem, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + menuColumns + ` FROM menu_items`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if !filters.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCounter))
		args = append(args, *filters.Category)
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY category, id")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

// GetItemsByIDs loads the given items, active or not. Missing ids are absent from the map.
func (r *menuRepository) GetItemsByIDs(ctx context.Context, executor SQLExecutor, ids []int64) (map[int64]models.MenuItem, error) {
	out := make(map[int64]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = ANY($1)`
	rows, err := executor.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: loading menu items %v: %v", ErrDatabaseError, ids, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		out[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu items: %v", ErrDatabaseError, err)
	}
	return out, nil
}

func (r *menuRepository) UpdateItem(ctx context.Context, executor SQLExecutor, item *models.MenuItem) error {
	query := `UPDATE menu_items
	          SET name = $1, price = $2, category = $3, is_active = $4, description = $5, image_ref = $6, updated_at = $7
	          WHERE id = $8`
	item.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		item.Name, item.Price, item.Category, item.IsActive, item.Description, item.ImageRef, item.UpdatedAt, item.ID)
	if err != nil {
		if pqErr, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: menu item name '%s' already exists (constraint: %s)", ErrDuplicateKey, item.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating menu item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuRepository) SetActive(ctx context.Context, executor SQLExecutor, id int64, active bool) error {
	query := `UPDATE menu_items SET is_active = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: setting is_active=%t on menu item ID %d: %v", ErrDatabaseError, active, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuRepository) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting menu items: %v", ErrDatabaseError, err)
	}
	return count, nil
}
