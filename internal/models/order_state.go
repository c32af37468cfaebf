package models

import (
	"fmt"
	"time"
)

// cookingTransitions lists every legal OrderItem move. Anything absent is illegal,
// which makes completed and cancelled terminal.
var cookingTransitions = map[CookingStatus][]CookingStatus{
	CookingPending: {CookingCooking, CookingCancelled},
	CookingCooking: {CookingCooking, CookingCompleted, CookingCancelled},
}

// CanTransition reports whether an item may move from one cooking status to another.
func CanTransition(from, to CookingStatus) bool {
	for _, next := range cookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Confirm records payment. Confirming an already confirmed order is a no-op and
// keeps the original confirmation time.
func (o *Order) Confirm(now time.Time) error {
	switch o.PaymentStatus {
	case PaymentPending:
		o.PaymentStatus = PaymentConfirmed
		o.ConfirmedAt = &now
		return nil
	case PaymentConfirmed:
		return nil
	default:
		return fmt.Errorf("%w: order %d is %s", ErrInvalidState, o.ID, o.PaymentStatus)
	}
}

// CanCancel checks the cancellation guard without mutating anything.
// A confirmed order with food on the stove cannot be cancelled.
func (o *Order) CanCancel(items []OrderItem) error {
	if o.PaymentStatus == PaymentCancelled {
		return fmt.Errorf("%w: order %d is already cancelled", ErrInvalidState, o.ID)
	}
	if o.PaymentStatus == PaymentConfirmed {
		for _, item := range items {
			if item.CookingStatus == CookingCooking {
				return fmt.Errorf("%w: order %d has item %d cooking", ErrConflict, o.ID, item.ID)
			}
		}
	}
	return nil
}

// Cancel cancels the order and cascades to every item that is neither completed
// nor already cancelled. items must be the full item set of the order. The
// returned slice points at the items that changed and must be persisted in the
// same transaction as the order.
func (o *Order) Cancel(now time.Time, reason *string, items []OrderItem) ([]*OrderItem, error) {
	if err := o.CanCancel(items); err != nil {
		return nil, err
	}
	o.PaymentStatus = PaymentCancelled
	o.CancelledAt = &now
	o.CancelReason = reason

	var changed []*OrderItem
	for i := range items {
		item := &items[i]
		if item.CookingStatus == CookingCompleted || item.CookingStatus == CookingCancelled {
			continue
		}
		item.CookingStatus = CookingCancelled
		item.CancelledAt = &now
		item.CancelReason = reason
		changed = append(changed, item)
	}
	return changed, nil
}

// Start moves a pending item to cooking. Starting an item that is already cooking
// keeps its original start time.
func (i *OrderItem) Start(now time.Time) error {
	switch i.CookingStatus {
	case CookingPending:
		i.CookingStatus = CookingCooking
		i.StartedAt = &now
		return nil
	case CookingCooking:
		if i.StartedAt == nil {
			i.StartedAt = &now
		}
		return nil
	default:
		return i.illegal(CookingCooking)
	}
}

// Finish moves a cooking item to completed.
func (i *OrderItem) Finish(now time.Time) error {
	if i.CookingStatus != CookingCooking {
		return i.illegal(CookingCompleted)
	}
	i.CookingStatus = CookingCompleted
	i.CompletedAt = &now
	return nil
}

// Cancel cancels a pending or cooking item.
func (i *OrderItem) Cancel(now time.Time, reason *string) error {
	if !CanTransition(i.CookingStatus, CookingCancelled) {
		return i.illegal(CookingCancelled)
	}
	i.CookingStatus = CookingCancelled
	i.CancelledAt = &now
	i.CancelReason = reason
	return nil
}

// ApplyCookingStatus dispatches to the transition matching target.
func (i *OrderItem) ApplyCookingStatus(target CookingStatus, now time.Time, reason *string) error {
	switch target {
	case CookingCooking:
		return i.Start(now)
	case CookingCompleted:
		return i.Finish(now)
	case CookingCancelled:
		return i.Cancel(now, reason)
	default:
		return i.illegal(target)
	}
}

// AutoComplete marks items that need no kitchen action as completed at creation.
func (i *OrderItem) AutoComplete(now time.Time) {
	if i.IsKitchenWork() {
		return
	}
	i.CookingStatus = CookingCompleted
	i.CompletedAt = &now
}

func (i *OrderItem) illegal(to CookingStatus) error {
	return fmt.Errorf("%w: item %d cannot move from %s to %s", ErrInvalidState, i.ID, i.CookingStatus, to)
}
