package services

import (
	"context"
	"fmt"
	"time"

	"table_order_backend/internal/models"
	"table_order_backend/internal/repositories"
	"table_order_backend/pkg/utils"
)

// KitchenService drives single-item cooking transitions.
type KitchenService interface {
	StartItem(ctx context.Context, itemID int64) (*models.OrderItem, error)
	CompleteItem(ctx context.Context, itemID int64) (*models.OrderItem, error)
	CancelItem(ctx context.Context, itemID int64, reason *string) (*models.OrderItem, error)
}

type kitchenService struct {
	orderRepo repositories.OrderRepository
	tx        repositories.Transactor
	notifier  EventNotifier
	now       func() time.Time
}

// NewKitchenService creates a new instance of KitchenService.
func NewKitchenService(or repositories.OrderRepository, tx repositories.Transactor, notifier EventNotifier) KitchenService {
	return &kitchenService{orderRepo: or, tx: tx, notifier: notifier, now: time.Now}
}

func (s *kitchenService) StartItem(ctx context.Context, itemID int64) (*models.OrderItem, error) {
	return s.transition(ctx, itemID, models.CookingCooking, nil)
}

func (s *kitchenService) CompleteItem(ctx context.Context, itemID int64) (*models.OrderItem, error) {
	return s.transition(ctx, itemID, models.CookingCompleted, nil)
}

func (s *kitchenService) CancelItem(ctx context.Context, itemID int64, reason *string) (*models.OrderItem, error) {
	return s.transition(ctx, itemID, models.CookingCancelled, reason)
}

// transition locks the parent order, then all of its items, applies the move
// and recomputes the order's kitchen-complete flag inside the same transaction.
func (s *kitchenService) transition(ctx context.Context, itemID int64, target models.CookingStatus, reason *string) (*models.OrderItem, error) {
	var order *models.Order
	var item models.OrderItem
	var complete bool

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		probe, err := s.orderRepo.GetOrderItemByID(ctx, exec, itemID, false)
		if err != nil {
			return err
		}
		order, err = s.orderRepo.GetOrderByID(ctx, exec, probe.OrderID, true)
		if err != nil {
			return err
		}
		if err := guardItemTransition(order, target); err != nil {
			return err
		}
		itemsByOrder, err := s.orderRepo.GetItemsByOrderIDs(ctx, exec, []int64{order.ID}, true)
		if err != nil {
			return err
		}
		items := itemsByOrder[order.ID]

		idx := -1
		for i := range items {
			if items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: order item %d", repositories.ErrNotFound, itemID)
		}
		current := &items[idx]
		if current.IsPseudo() {
			return fmt.Errorf("%w: item %d is not kitchen work", models.ErrInvalidState, itemID)
		}
		if err := current.ApplyCookingStatus(target, s.now(), reason); err != nil {
			return err
		}
		if err := s.orderRepo.UpdateOrderItem(ctx, exec, current); err != nil {
			return err
		}
		item = *current
		complete = models.IsKitchenComplete(items)
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Order item updated", map[string]interface{}{
		"order_id": order.ID, "item_id": item.ID, "status": item.CookingStatus, "order_complete": complete,
	})
	targets := []models.Target{models.ToTable(order.TableID), models.AdminChannel()}
	if target == models.CookingCancelled {
		s.notifier.Notify(ctx, models.ItemCancelledEvent{OrderID: order.ID, TableID: order.TableID, ItemID: item.ID, Reason: reason}, targets...)
	} else {
		id := item.ID
		s.notifier.Notify(ctx, models.StatusChangedEvent{
			OrderID:       order.ID,
			TableID:       order.TableID,
			ItemID:        &id,
			Status:        string(item.CookingStatus),
			OrderComplete: complete,
		}, targets...)
	}
	return &item, nil
}
