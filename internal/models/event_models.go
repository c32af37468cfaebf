package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AdminTableID is the reserved table id of the admin/kitchen live channel.
// Physical tables start at 1.
const AdminTableID int64 = 0

// EventType is the "type" discriminator of a pushed notification.
type EventType string

const (
	EventNewOrder         EventType = "new_order"
	EventStatusChanged    EventType = "status_changed"
	EventItemCancelled    EventType = "item_cancelled"
	EventOrderCancelled   EventType = "order_cancelled"
	EventGiftOrder        EventType = "gift_order"
	EventChatMessage      EventType = "chat_message"
	EventWaitingChanged   EventType = "waiting_changed"
	EventGiftAnnouncement EventType = "gift_announcement"
)

// Event is a domain event produced after a state change has been committed.
type Event interface {
	EventType() EventType
}

type NewOrderEvent struct {
	OrderID         int64  `json:"order_id"`
	TableID         int64  `json:"table_id"`
	Amount          int64  `json:"amount"`
	GiftFromTableID *int64 `json:"gift_from_table_id,omitempty"`
}

// StatusChangedEvent covers both payment changes (ItemID nil) and item cooking changes.
type StatusChangedEvent struct {
	OrderID       int64  `json:"order_id"`
	TableID       int64  `json:"table_id"`
	ItemID        *int64 `json:"item_id,omitempty"`
	Status        string `json:"status"`
	OrderComplete bool   `json:"order_complete"`
}

type ItemCancelledEvent struct {
	OrderID int64   `json:"order_id"`
	TableID int64   `json:"table_id"`
	ItemID  int64   `json:"item_id"`
	Reason  *string `json:"reason,omitempty"`
}

type OrderCancelledEvent struct {
	OrderID        int64   `json:"order_id"`
	TableID        int64   `json:"table_id"`
	Reason         *string `json:"reason,omitempty"`
	CancelledItems int     `json:"cancelled_items"`
}

type GiftOrderEvent struct {
	OrderID      int64   `json:"order_id"`
	FromTableID  int64   `json:"from_table_id"`
	ToTableID    int64   `json:"to_table_id"`
	FromNickname string  `json:"from_nickname"`
	Amount       int64   `json:"amount"`
	Message      *string `json:"message,omitempty"`
}

type GiftAnnouncementEvent struct {
	FromNickname string `json:"from_nickname"`
	ToNickname   string `json:"to_nickname"`
	Amount       int64  `json:"amount"`
}

type ChatMessageEvent struct {
	ID            int64     `json:"id"`
	TableID       int64     `json:"table_id"`
	Nickname      string    `json:"nickname"`
	Message       string    `json:"message"`
	TargetTableID *int64    `json:"target_table_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type WaitingChangedEvent struct {
	WaitingID   int64         `json:"waiting_id"`
	Status      WaitingStatus `json:"status"`
	Name        string        `json:"name"`
	PartySize   int           `json:"party_size"`
	TableID     *int64        `json:"table_id,omitempty"`
	QueueLength int           `json:"queue_length"`
}

func (NewOrderEvent) EventType() EventType         { return EventNewOrder }
func (StatusChangedEvent) EventType() EventType    { return EventStatusChanged }
func (ItemCancelledEvent) EventType() EventType    { return EventItemCancelled }
func (OrderCancelledEvent) EventType() EventType   { return EventOrderCancelled }
func (GiftOrderEvent) EventType() EventType        { return EventGiftOrder }
func (GiftAnnouncementEvent) EventType() EventType { return EventGiftAnnouncement }
func (ChatMessageEvent) EventType() EventType      { return EventChatMessage }
func (WaitingChangedEvent) EventType() EventType   { return EventWaitingChanged }

// EncodeEvent renders the transport payload {"type": ..., <event fields>}.
func EncodeEvent(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", e.EventType(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", e.EventType(), err)
	}
	fields["type"], _ = json.Marshal(e.EventType())
	return json.Marshal(fields)
}

// TargetKind selects the audience of a notification.
type TargetKind int

const (
	TargetTable TargetKind = iota
	TargetAllTables
	TargetAdmin
)

// Target is a notification recipient selector.
type Target struct {
	Kind    TargetKind
	TableID int64
}

func ToTable(tableID int64) Target { return Target{Kind: TargetTable, TableID: tableID} }
func AllTables() Target            { return Target{Kind: TargetAllTables} }
func AdminChannel() Target         { return Target{Kind: TargetAdmin, TableID: AdminTableID} }

func (t Target) String() string {
	switch t.Kind {
	case TargetAllTables:
		return "all_tables"
	case TargetAdmin:
		return "admin"
	default:
		return fmt.Sprintf("table:%d", t.TableID)
	}
}
