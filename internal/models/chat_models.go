package models

import "time"

// ChatMessage is immutable once stored. A nil TargetTableID means the message
// was sent to every table.
type ChatMessage struct {
	ID            int64     `json:"id" db:"id"`
	SenderTableID int64     `json:"table_id" db:"sender_table_id"`
	Message       string    `json:"message" db:"message"`
	Nickname      string    `json:"nickname" db:"nickname"`
	TargetTableID *int64    `json:"target_table_id,omitempty" db:"target_table_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// IsPrivate reports whether the message targets a single table.
func (m *ChatMessage) IsPrivate() bool {
	return m.TargetTableID != nil
}

// OnlineTable is one entry of the online-table list.
type OnlineTable struct {
	TableID  int64  `json:"table_id"`
	Nickname string `json:"nickname"`
}
