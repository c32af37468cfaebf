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

// OrderRepository defines the interface for order-related database operations.
// Methods taking forUpdate lock the returned rows; callers lock the order row
// before any of its items.
type OrderRepository interface {
	// Order methods
	CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(ctx context.Context, executor SQLExecutor, orderID int64, forUpdate bool) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, error)
	UpdatePaymentStatus(ctx context.Context, executor SQLExecutor, order *models.Order) error

	// OrderItem methods
	CreateOrderItem(ctx context.Context, executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderItemByID(ctx context.Context, executor SQLExecutor, itemID int64, forUpdate bool) (*models.OrderItem, error)
	GetItemsByOrderIDs(ctx context.Context, executor SQLExecutor, orderIDs []int64, forUpdate bool) (map[int64][]models.OrderItem, error)
	UpdateOrderItem(ctx context.Context, executor SQLExecutor, item *models.OrderItem) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.table_id, o.amount, o.payment_status, o.created_at, o.confirmed_at, o.cancelled_at,
	o.cancel_reason, o.gift_from_table_id, o.gift_message`

func scanOrder(row scanner) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.TableID, &o.Amount, &o.PaymentStatus, &o.CreatedAt, &o.ConfirmedAt, &o.CancelledAt,
		&o.CancelReason, &o.GiftFromTableID, &o.GiftMessage)
	return o, err
}

const orderItemColumns = `oi.id, oi.order_id, oi.menu_item_id, oi.quantity, oi.cooking_status, oi.is_set_component,
	oi.parent_set_name, oi.notes, oi.started_at, oi.completed_at, oi.cancelled_at, oi.cancel_reason, oi.created_at,
	mi.name, mi.category`

func scanOrderItem(row scanner) (models.OrderItem, error) {
	var item models.OrderItem
	var name, category sql.NullString
	err := row.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.CookingStatus, &item.IsSetComponent,
		&item.ParentSetName, &item.Notes, &item.StartedAt, &item.CompletedAt, &item.CancelledAt, &item.CancelReason, &item.CreatedAt,
		&name, &category)
	if err != nil {
		return item, err
	}
	item.ItemName = name.String
	item.Category = models.MenuCategory(category.String)
	if item.ItemName == "" && item.Notes != nil {
		item.ItemName = *item.Notes
	}
	return item, nil
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (table_id, amount, payment_status, created_at, gift_from_table_id, gift_message)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	err := executor.QueryRowContext(ctx, query,
		order.TableID, order.Amount, order.PaymentStatus, order.CreatedAt, order.GiftFromTableID, order.GiftMessage,
	).Scan(&order.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, executor SQLExecutor, orderID int64, forUpdate bool) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1` + lockClause(forUpdate)
	order, err := scanOrder(executor.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return &order, nil
}

func (r *orderRepository) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + ` FROM orders o`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("o.table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if len(filters.PaymentStatus) > 0 {
		conditions = append(conditions, fmt.Sprintf("o.payment_status = ANY($%d)", argCounter))
		args = append(args, pq.Array(filters.PaymentStatus))
		argCounter++
	}
	if filters.ConfirmedSince != nil {
		conditions = append(conditions, fmt.Sprintf("o.confirmed_at >= $%d", argCounter))
		args = append(args, *filters.ConfirmedSince)
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	if filters.OldestFirst {
		queryBuilder.WriteString(" ORDER BY o.created_at ASC, o.id ASC")
	} else {
		queryBuilder.WriteString(" ORDER BY o.created_at DESC, o.id DESC")
	}
	if filters.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getting orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating orders: %v", ErrDatabaseError, err)
	}
	return orders, nil
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, executor SQLExecutor, order *models.Order) error {
	query := `UPDATE orders
	          SET payment_status = $1, confirmed_at = $2, cancelled_at = $3, cancel_reason = $4
	          WHERE id = $5`
	result, err := executor.ExecContext(ctx, query,
		order.PaymentStatus, order.ConfirmedAt, order.CancelledAt, order.CancelReason, order.ID)
	if err != nil {
		return fmt.Errorf("%w: updating payment status for order ID %d: %v", ErrDatabaseError, order.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: order %d", ErrNotFound, order.ID)
	}
	return nil
}

// --- OrderItem Methods ---

func (r *orderRepository) CreateOrderItem(ctx context.Context, executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items
	            (order_id, menu_item_id, quantity, cooking_status, is_set_component, parent_set_name, notes,
	             completed_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		item.OrderID, item.MenuItemID, item.Quantity, item.CookingStatus, item.IsSetComponent, item.ParentSetName, item.Notes,
		item.CompletedAt, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		if pqErr, ok := isForeignKeyViolation(err); ok {
			return 0, fmt.Errorf("%w: creating order item for order %d (constraint: %s): %v", ErrDatabaseError, item.OrderID, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating order item for order %d: %v", ErrDatabaseError, item.OrderID, err)
	}
	return item.ID, nil
}

func (r *orderRepository) GetOrderItemByID(ctx context.Context, executor SQLExecutor, itemID int64, forUpdate bool) (*models.OrderItem, error) {
	query := `SELECT ` + orderItemColumns + `
	          FROM order_items oi
	          LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id
	          WHERE oi.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF oi`
	}
	item, err := scanOrderItem(executor.QueryRowContext(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order item %d", ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("%w: getting order item by ID %d: %v", ErrDatabaseError, itemID, err)
	}
	return &item, nil
}

// GetItemsByOrderIDs loads the items of several orders in one round trip,
// grouped by order id and sorted by item id.
func (r *orderRepository) GetItemsByOrderIDs(ctx context.Context, executor SQLExecutor, orderIDs []int64, forUpdate bool) (map[int64][]models.OrderItem, error) {
	out := make(map[int64][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + orderItemColumns + `
	          FROM order_items oi
	          LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id
	          WHERE oi.order_id = ANY($1)
	          ORDER BY oi.order_id, oi.id`
	if forUpdate {
		query += ` FOR UPDATE OF oi`
	}
	rows, err := executor.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: getting items for orders %v: %v", ErrDatabaseError, orderIDs, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order items: %v", ErrDatabaseError, err)
	}
	return out, nil
}

func (r *orderRepository) UpdateOrderItem(ctx context.Context, executor SQLExecutor, item *models.OrderItem) error {
	query := `UPDATE order_items
	          SET cooking_status = $1, started_at = $2, completed_at = $3, cancelled_at = $4, cancel_reason = $5
	          WHERE id = $6`
	result, err := executor.ExecContext(ctx, query,
		item.CookingStatus, item.StartedAt, item.CompletedAt, item.CancelledAt, item.CancelReason, item.ID)
	if err != nil {
		return fmt.Errorf("%w: updating order item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: order item %d", ErrNotFound, item.ID)
	}
	return nil
}
