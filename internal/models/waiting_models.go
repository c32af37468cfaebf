package models

import (
	"fmt"
	"time"
)

// WaitingStatus defines the type for waiting-list statuses
type WaitingStatus string

const (
	WaitingWaiting   WaitingStatus = "waiting"
	WaitingCalled    WaitingStatus = "called"
	WaitingSeated    WaitingStatus = "seated"
	WaitingCancelled WaitingStatus = "cancelled"
)

// Waiting is a walk-in party queued for a table.
type Waiting struct {
	ID          int64         `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Phone       string        `json:"phone" db:"phone"`
	PartySize   int           `json:"party_size" db:"party_size"`
	Status      WaitingStatus `json:"status" db:"status"`
	Notes       *string       `json:"notes,omitempty" db:"notes"`
	TableID     *int64        `json:"table_id,omitempty" db:"table_id"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	CalledAt    *time.Time    `json:"called_at,omitempty" db:"called_at"`
	SeatedAt    *time.Time    `json:"seated_at,omitempty" db:"seated_at"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
}

// WaitingStats holds per-status counters for one day.
type WaitingStats struct {
	Date      string `json:"date"`
	Waiting   int    `json:"waiting"`
	Called    int    `json:"called"`
	Seated    int    `json:"seated"`
	Cancelled int    `json:"cancelled"`
	Total     int    `json:"total"`
}

// Add increments the counter for status.
func (s *WaitingStats) Add(status WaitingStatus, n int) {
	switch status {
	case WaitingWaiting:
		s.Waiting += n
	case WaitingCalled:
		s.Called += n
	case WaitingSeated:
		s.Seated += n
	case WaitingCancelled:
		s.Cancelled += n
	default:
		return
	}
	s.Total += n
}

// Call moves a waiting party to called.
func (w *Waiting) Call(now time.Time) error {
	if w.Status != WaitingWaiting {
		return w.illegal(WaitingCalled)
	}
	w.Status = WaitingCalled
	w.CalledAt = &now
	return nil
}

// Seat assigns a table to a waiting or called party.
func (w *Waiting) Seat(now time.Time, tableID int64) error {
	if w.Status != WaitingWaiting && w.Status != WaitingCalled {
		return w.illegal(WaitingSeated)
	}
	w.Status = WaitingSeated
	w.SeatedAt = &now
	w.TableID = &tableID
	return nil
}

// Cancel removes a waiting or called party from the queue.
func (w *Waiting) Cancel(now time.Time) error {
	if w.Status != WaitingWaiting && w.Status != WaitingCalled {
		return w.illegal(WaitingCancelled)
	}
	w.Status = WaitingCancelled
	w.CancelledAt = &now
	return nil
}

func (w *Waiting) illegal(to WaitingStatus) error {
	return fmt.Errorf("%w: waiting %d cannot move from %s to %s", ErrInvalidState, w.ID, w.Status, to)
}
