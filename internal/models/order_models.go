package models

import "time"

// PaymentStatus is the lifecycle of an order header.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// CookingStatus is the lifecycle of a single order item in the kitchen.
type CookingStatus string

const (
	CookingPending   CookingStatus = "pending"
	CookingCooking   CookingStatus = "cooking"
	CookingCompleted CookingStatus = "completed"
	CookingCancelled CookingStatus = "cancelled"
)

// Order is the payment header of a table's order. It owns its items.
type Order struct {
	ID              int64         `json:"id" db:"id"`
	TableID         int64         `json:"table_id" db:"table_id"`
	Amount          int64         `json:"amount" db:"amount"`
	PaymentStatus   PaymentStatus `json:"payment_status" db:"payment_status"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	ConfirmedAt     *time.Time    `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelReason    *string       `json:"cancel_reason,omitempty" db:"cancel_reason"`
	GiftFromTableID *int64        `json:"gift_from_table_id,omitempty" db:"gift_from_table_id"`
	GiftMessage     *string       `json:"gift_message,omitempty" db:"gift_message"`
	Items           []OrderItem   `json:"items,omitempty"`
}

// OrderItem is one trackable unit of kitchen work. A nil MenuItemID denotes a
// pseudo-item (e.g. a raffle ticket) that never reaches the kitchen.
type OrderItem struct {
	ID             int64         `json:"id" db:"id"`
	OrderID        int64         `json:"order_id" db:"order_id"`
	MenuItemID     *int64        `json:"menu_item_id" db:"menu_item_id"`
	Quantity       int           `json:"quantity" db:"quantity"`
	CookingStatus  CookingStatus `json:"cooking_status" db:"cooking_status"`
	IsSetComponent bool          `json:"is_set_component" db:"is_set_component"`
	ParentSetName  *string       `json:"parent_set_name,omitempty" db:"parent_set_name"`
	Notes          *string       `json:"notes,omitempty" db:"notes"`
	StartedAt      *time.Time    `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelReason   *string       `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`

	// Joined from menu_items on read; empty for pseudo-items.
	ItemName string       `json:"item_name,omitempty"`
	Category MenuCategory `json:"category,omitempty"`
}

// IsPseudo reports whether the item has no catalog entry behind it.
func (i *OrderItem) IsPseudo() bool {
	return i.MenuItemID == nil
}

// IsKitchenWork reports whether the kitchen has to act on the item.
func (i *OrderItem) IsKitchenWork() bool {
	return !i.IsPseudo() && i.Category != CategoryTableCharge
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	TableID       *int64   `form:"table_id"`
	PaymentStatus []string `form:"status"`
	Limit         int      `form:"limit"`
	OldestFirst   bool

	// ConfirmedSince keeps orders confirmed at or after the given time.
	ConfirmedSince *time.Time
}

// TableOrders groups orders of one table for the kitchen board.
type TableOrders struct {
	TableID  int64                 `json:"table_id"`
	Nickname string                `json:"nickname,omitempty"`
	Orders   []Order               `json:"orders"`
	Progress map[CookingStatus]int `json:"progress"`
}

// KitchenBoard is the polled read model behind the kitchen display.
type KitchenBoard struct {
	InProgress []TableOrders `json:"in_progress"`
	Completed  []TableOrders `json:"completed"`
}
