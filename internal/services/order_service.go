package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"table_order_backend/internal/models"
	"table_order_backend/internal/repositories"
	"table_order_backend/internal/setmenu"
	"table_order_backend/pkg/utils"
)

// --- Data Transfer Objects (DTOs) ---

// SubmitOrderRequest carries the raw cart exactly as the client sent it.
type SubmitOrderRequest struct {
	Menu json.RawMessage `json:"menu" binding:"required"`
}

// GiftOrderRequest is an order placed by one table for another.
type GiftOrderRequest struct {
	FromTableID int64           `json:"from_table_id" binding:"required"`
	ToTableID   int64           `json:"to_table_id" binding:"required"`
	Menu        json.RawMessage `json:"menu" binding:"required"`
	Message     string          `json:"message" binding:"max=200"`
}

// CancelRequest carries an optional free-text reason.
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// UpdateOrderStatusRequest is the whole-order cooking status update.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- End of DTOs ---

// SetTableSource provides the composition table bound to the current catalog.
type SetTableSource interface {
	SetTable(ctx context.Context) (*setmenu.Table, error)
}

// OrderOptions configures OrderService.
type OrderOptions struct {
	MaxTables int
	// KitchenLookback bounds how far back the kitchen board looks for confirmation times.
	KitchenLookback time.Duration
}

// --- OrderService Interface ---
type OrderService interface {
	SubmitOrder(ctx context.Context, tableID int64, rawCart []byte) (*models.Order, error)
	SubmitGiftOrder(ctx context.Context, req GiftOrderRequest) (*models.Order, error)
	ConfirmOrder(ctx context.Context, orderID int64) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID int64, reason *string) (*models.Order, error)
	BulkSetOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error)

	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	PendingOrders(ctx context.Context) ([]models.Order, error)
	KitchenBoard(ctx context.Context) (*models.KitchenBoard, error)
	TableOrderHistory(ctx context.Context, tableID int64, statuses []string) ([]models.Order, error)
}

// --- orderService Implementation ---
type orderService struct {
	orderRepo repositories.OrderRepository
	menuRepo  repositories.MenuRepository
	tx        repositories.Transactor
	sets      SetTableSource
	notifier  EventNotifier
	presence  TablePresence
	opts      OrderOptions
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	mr repositories.MenuRepository,
	tx repositories.Transactor,
	sets SetTableSource,
	notifier EventNotifier,
	presence TablePresence,
	opts OrderOptions,
) OrderService {
	if opts.KitchenLookback <= 0 {
		opts.KitchenLookback = 12 * time.Hour
	}
	return &orderService{
		orderRepo: or,
		menuRepo:  mr,
		tx:        tx,
		sets:      sets,
		notifier:  notifier,
		presence:  presence,
		opts:      opts,
		now:       time.Now,
	}
}

// --- Submission ---

func (s *orderService) SubmitOrder(ctx context.Context, tableID int64, rawCart []byte) (*models.Order, error) {
	if err := validateTableID(tableID, s.opts.MaxTables); err != nil {
		return nil, err
	}
	order, err := s.createOrder(ctx, &models.Order{TableID: tableID}, rawCart)
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Order submitted", map[string]interface{}{"order_id": order.ID, "table_id": tableID, "amount": order.Amount, "items": len(order.Items)})
	s.notifier.Notify(ctx, models.NewOrderEvent{OrderID: order.ID, TableID: order.TableID, Amount: order.Amount}, models.AdminChannel())
	return order, nil
}

func (s *orderService) SubmitGiftOrder(ctx context.Context, req GiftOrderRequest) (*models.Order, error) {
	if err := validateTableID(req.FromTableID, s.opts.MaxTables); err != nil {
		return nil, err
	}
	if err := validateTableID(req.ToTableID, s.opts.MaxTables); err != nil {
		return nil, err
	}
	if req.FromTableID == req.ToTableID {
		return nil, fmt.Errorf("%w: a table cannot send a gift to itself", models.ErrValidation)
	}

	from := req.FromTableID
	order, err := s.createOrder(ctx, &models.Order{
		TableID:         req.ToTableID,
		GiftFromTableID: &from,
		GiftMessage:     utils.NewNullString(req.Message),
	}, req.Menu)
	if err != nil {
		return nil, err
	}

	fromNickname := s.presence.Nickname(req.FromTableID)
	toNickname := s.presence.Nickname(req.ToTableID)
	utils.LogInfo("Gift order submitted", map[string]interface{}{"order_id": order.ID, "from_table_id": from, "to_table_id": req.ToTableID})

	s.notifier.Notify(ctx, models.NewOrderEvent{OrderID: order.ID, TableID: order.TableID, Amount: order.Amount, GiftFromTableID: &from}, models.AdminChannel())
	s.notifier.Notify(ctx, models.GiftOrderEvent{
		OrderID:      order.ID,
		FromTableID:  from,
		ToTableID:    req.ToTableID,
		FromNickname: fromNickname,
		Amount:       order.Amount,
		Message:      order.GiftMessage,
	}, models.ToTable(req.ToTableID))
	s.notifier.Notify(ctx, models.GiftAnnouncementEvent{FromNickname: fromNickname, ToNickname: toNickname, Amount: order.Amount}, models.AllTables())
	return order, nil
}

// createOrder validates the cart against the catalog, prices it and persists
// the order with its decomposed items in one transaction. Nothing is written
// when the cart filters down to zero lines.
func (s *orderService) createOrder(ctx context.Context, order *models.Order, rawCart []byte) (*models.Order, error) {
	entries, err := ParseCart(rawCart)
	if err != nil {
		return nil, err
	}
	setTable, err := s.sets.SetTable(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		ids := make([]int64, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.MenuItemID)
		}
		catalog, err := s.menuRepo.GetItemsByIDs(ctx, exec, ids)
		if err != nil {
			return err
		}

		var lines []setmenu.Line
		var amount int64
		for _, e := range entries {
			item, ok := catalog[e.MenuItemID]
			if !ok || !item.IsActive {
				utils.LogDebug("Dropping cart entry", map[string]interface{}{"menu_item_id": e.MenuItemID, "known": ok})
				continue
			}
			lines = append(lines, setmenu.Line{Item: item, Quantity: e.Quantity})
			amount += item.Price * int64(e.Quantity)
		}
		if len(lines) == 0 {
			return fmt.Errorf("%w: table %d", models.ErrEmptyOrder, order.TableID)
		}

		records := setmenu.Decompose(lines, setTable)
		if err := s.loadComponents(ctx, exec, records, catalog); err != nil {
			return err
		}

		order.Amount = amount
		order.PaymentStatus = models.PaymentPending
		order.CreatedAt = now
		if _, err := s.orderRepo.CreateOrder(ctx, exec, order); err != nil {
			return err
		}

		order.Items = make([]models.OrderItem, 0, len(records))
		for _, rec := range records {
			item := models.OrderItem{
				OrderID:        order.ID,
				MenuItemID:     rec.MenuItemID,
				Quantity:       rec.Quantity,
				CookingStatus:  models.CookingPending,
				IsSetComponent: rec.IsSetComponent,
				ParentSetName:  rec.ParentSetName,
				Notes:          rec.Notes,
				CreatedAt:      now,
			}
			if rec.MenuItemID != nil {
				mi := catalog[*rec.MenuItemID]
				item.ItemName, item.Category = mi.Name, mi.Category
			} else if rec.Notes != nil {
				item.ItemName = *rec.Notes
			}
			item.AutoComplete(now)
			if _, err := s.orderRepo.CreateOrderItem(ctx, exec, &item); err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// loadComponents adds set components missing from catalog so that their
// category is known when deciding auto-completion.
func (s *orderService) loadComponents(ctx context.Context, exec repositories.SQLExecutor, records []setmenu.Record, catalog map[int64]models.MenuItem) error {
	var missing []int64
	for _, rec := range records {
		if rec.MenuItemID == nil {
			continue
		}
		if _, ok := catalog[*rec.MenuItemID]; !ok {
			missing = append(missing, *rec.MenuItemID)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	extra, err := s.menuRepo.GetItemsByIDs(ctx, exec, missing)
	if err != nil {
		return err
	}
	for id, item := range extra {
		catalog[id] = item
	}
	return nil
}

// --- Payment transitions ---

func (s *orderService) ConfirmOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order *models.Order
	changed := false
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		order, err = s.orderRepo.GetOrderByID(ctx, exec, orderID, true)
		if err != nil {
			return err
		}
		changed = order.PaymentStatus == models.PaymentPending
		if err := order.Confirm(s.now()); err != nil {
			return err
		}
		if changed {
			if err := s.orderRepo.UpdatePaymentStatus(ctx, exec, order); err != nil {
				return err
			}
		}
		return s.attachItems(ctx, exec, order)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		utils.LogInfo("Order confirmed", map[string]interface{}{"order_id": order.ID, "table_id": order.TableID})
		s.notifier.Notify(ctx, models.StatusChangedEvent{
			OrderID:       order.ID,
			TableID:       order.TableID,
			Status:        string(models.PaymentConfirmed),
			OrderComplete: models.IsKitchenComplete(order.Items),
		}, models.ToTable(order.TableID), models.AdminChannel())
	}
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, orderID int64, reason *string) (*models.Order, error) {
	var order *models.Order
	var cancelled int
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		order, err = s.orderRepo.GetOrderByID(ctx, exec, orderID, true)
		if err != nil {
			return err
		}
		itemsByOrder, err := s.orderRepo.GetItemsByOrderIDs(ctx, exec, []int64{orderID}, true)
		if err != nil {
			return err
		}
		order.Items = itemsByOrder[orderID]

		changed, err := order.Cancel(s.now(), reason, order.Items)
		if err != nil {
			return err
		}
		if err := s.orderRepo.UpdatePaymentStatus(ctx, exec, order); err != nil {
			return err
		}
		for _, item := range changed {
			if err := s.orderRepo.UpdateOrderItem(ctx, exec, item); err != nil {
				return err
			}
		}
		cancelled = len(changed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Order cancelled", map[string]interface{}{"order_id": order.ID, "table_id": order.TableID, "cancelled_items": cancelled})
	s.notifier.Notify(ctx, models.OrderCancelledEvent{
		OrderID:        order.ID,
		TableID:        order.TableID,
		Reason:         reason,
		CancelledItems: cancelled,
	}, models.ToTable(order.TableID), models.AdminChannel())
	return order, nil
}

// BulkSetOrderStatus moves every real item of the order to status where that
// transition is legal. Items that cannot move are left untouched.
func (s *orderService) BulkSetOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	target := models.CookingStatus(status)
	switch target {
	case models.CookingCooking, models.CookingCompleted, models.CookingCancelled:
	default:
		return nil, fmt.Errorf("%w: status must be one of cooking, completed, cancelled (got '%s')", models.ErrValidation, status)
	}

	var order *models.Order
	updated := 0
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		order, err = s.orderRepo.GetOrderByID(ctx, exec, orderID, true)
		if err != nil {
			return err
		}
		if err := guardItemTransition(order, target); err != nil {
			return err
		}
		itemsByOrder, err := s.orderRepo.GetItemsByOrderIDs(ctx, exec, []int64{orderID}, true)
		if err != nil {
			return err
		}
		order.Items = itemsByOrder[orderID]

		now := s.now()
		for i := range order.Items {
			item := &order.Items[i]
			if item.IsPseudo() || item.CookingStatus == target || !models.CanTransition(item.CookingStatus, target) {
				continue
			}
			if err := item.ApplyCookingStatus(target, now, nil); err != nil {
				continue
			}
			if err := s.orderRepo.UpdateOrderItem(ctx, exec, item); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Order items updated in bulk", map[string]interface{}{"order_id": order.ID, "status": status, "updated_items": updated})
	if updated > 0 {
		s.notifier.Notify(ctx, models.StatusChangedEvent{
			OrderID:       order.ID,
			TableID:       order.TableID,
			Status:        status,
			OrderComplete: models.IsKitchenComplete(order.Items),
		}, models.ToTable(order.TableID), models.AdminChannel())
	}
	return order, nil
}

// guardItemTransition applies the parent-order rule for item transitions:
// kitchen work requires a confirmed order, cancellation a live one.
func guardItemTransition(order *models.Order, target models.CookingStatus) error {
	if target == models.CookingCancelled {
		if order.PaymentStatus == models.PaymentCancelled {
			return fmt.Errorf("%w: order %d is cancelled", models.ErrInvalidState, order.ID)
		}
		return nil
	}
	if order.PaymentStatus != models.PaymentConfirmed {
		return fmt.Errorf("%w: order %d is %s, not confirmed", models.ErrInvalidState, order.ID, order.PaymentStatus)
	}
	return nil
}

// --- Read models ---

func (s *orderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	exec := s.tx.Executor()
	order, err := s.orderRepo.GetOrderByID(ctx, exec, orderID, false)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, exec, order); err != nil {
		return nil, err
	}
	return order, nil
}

// PendingOrders lists unpaid orders, oldest first.
func (s *orderService) PendingOrders(ctx context.Context) ([]models.Order, error) {
	return s.listWithItems(ctx, models.OrderFilters{
		PaymentStatus: []string{string(models.PaymentPending)},
		OldestFirst:   true,
	})
}

// KitchenBoard splits recently confirmed orders into in-progress and completed,
// grouped by table. Completion is recomputed from item state on every call.
func (s *orderService) KitchenBoard(ctx context.Context) (*models.KitchenBoard, error) {
	since := s.now().Add(-s.opts.KitchenLookback)
	orders, err := s.listWithItems(ctx, models.OrderFilters{
		PaymentStatus:  []string{string(models.PaymentConfirmed)},
		ConfirmedSince: &since,
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return confirmedAt(orders[i]).After(confirmedAt(orders[j]))
	})

	var inProgress, completed []models.Order
	for _, o := range orders {
		if models.IsKitchenComplete(o.Items) {
			completed = append(completed, o)
		} else {
			inProgress = append(inProgress, o)
		}
	}
	return &models.KitchenBoard{
		InProgress: s.groupByTable(inProgress),
		Completed:  s.groupByTable(completed),
	}, nil
}

func confirmedAt(o models.Order) time.Time {
	if o.ConfirmedAt != nil {
		return *o.ConfirmedAt
	}
	return o.CreatedAt
}

// groupByTable keeps the first-seen order of tables and of orders within a
// table. Progress counts the table's kitchen items per cooking status.
func (s *orderService) groupByTable(orders []models.Order) []models.TableOrders {
	groups := []models.TableOrders{}
	index := make(map[int64]int)
	for _, o := range orders {
		i, ok := index[o.TableID]
		if !ok {
			i = len(groups)
			index[o.TableID] = i
			groups = append(groups, models.TableOrders{
				TableID:  o.TableID,
				Nickname: s.presence.Nickname(o.TableID),
				Progress: map[models.CookingStatus]int{},
			})
		}
		groups[i].Orders = append(groups[i].Orders, o)
		for status, n := range models.KitchenProgress(o.Items) {
			groups[i].Progress[status] += n
		}
	}
	return groups
}

// TableOrderHistory lists a table's orders, newest first, optionally filtered by payment status.
func (s *orderService) TableOrderHistory(ctx context.Context, tableID int64, statuses []string) ([]models.Order, error) {
	if err := validateTableID(tableID, s.opts.MaxTables); err != nil {
		return nil, err
	}
	var filter []string
	for _, st := range statuses {
		st = strings.TrimSpace(st)
		if st == "" {
			continue
		}
		switch models.PaymentStatus(st) {
		case models.PaymentPending, models.PaymentConfirmed, models.PaymentCancelled:
			filter = append(filter, st)
		default:
			return nil, fmt.Errorf("%w: unknown payment status '%s'", models.ErrValidation, st)
		}
	}
	return s.listWithItems(ctx, models.OrderFilters{TableID: &tableID, PaymentStatus: filter})
}

func (s *orderService) listWithItems(ctx context.Context, filters models.OrderFilters) ([]models.Order, error) {
	orders, err := s.orderRepo.GetOrders(ctx, filters)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}
	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	itemsByOrder, err := s.orderRepo.GetItemsByOrderIDs(ctx, s.tx.Executor(), ids, false)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}
	return orders, nil
}

func (s *orderService) attachItems(ctx context.Context, exec repositories.SQLExecutor, order *models.Order) error {
	itemsByOrder, err := s.orderRepo.GetItemsByOrderIDs(ctx, exec, []int64{order.ID}, false)
	if err != nil {
		return err
	}
	order.Items = itemsByOrder[order.ID]
	return nil
}
