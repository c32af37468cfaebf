package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"table_order_backend/internal/models"
	"table_order_backend/internal/repositories"
	"table_order_backend/pkg/utils"
)

// --- Waiting DTOs ---
type AddWaitingRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	Phone     string `json:"phone" binding:"required,phone"`
	PartySize int    `json:"party_size" binding:"required,min=1,max=50"`
	Notes     string `json:"notes" binding:"max=500"`
}

type SeatWaitingRequest struct {
	TableID int64 `json:"table_id" binding:"required"`
}

// --- WaitingService Interface ---
type WaitingService interface {
	Add(ctx context.Context, req AddWaitingRequest) (*models.Waiting, error)
	Call(ctx context.Context, waitingID int64) (*models.Waiting, error)
	Seat(ctx context.Context, waitingID, tableID int64) (*models.Waiting, error)
	Cancel(ctx context.Context, waitingID int64) (*models.Waiting, error)
	ActiveQueue(ctx context.Context) ([]models.Waiting, error)
	TodayStats(ctx context.Context) (*models.WaitingStats, error)
}

type waitingService struct {
	waitingRepo repositories.WaitingRepository
	tx          repositories.Transactor
	notifier    EventNotifier
	maxTables   int
	now         func() time.Time
}

// NewWaitingService creates a new instance of WaitingService.
func NewWaitingService(repo repositories.WaitingRepository, tx repositories.Transactor, notifier EventNotifier, maxTables int) WaitingService {
	return &waitingService{waitingRepo: repo, tx: tx, notifier: notifier, maxTables: maxTables, now: time.Now}
}

// Add enqueues a party. A phone number may hold only one entry in status waiting.
func (s *waitingService) Add(ctx context.Context, req AddWaitingRequest) (*models.Waiting, error) {
	name := strings.TrimSpace(req.Name)
	phone := utils.NormalizePhone(req.Phone)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", models.ErrValidation)
	}
	if !utils.IsValidPhone(phone) {
		return nil, fmt.Errorf("%w: invalid phone number '%s'", models.ErrValidation, req.Phone)
	}
	if req.PartySize < 1 {
		return nil, fmt.Errorf("%w: party size must be at least 1", models.ErrValidation)
	}

	w := &models.Waiting{
		Name:      name,
		Phone:     phone,
		PartySize: req.PartySize,
		Status:    models.WaitingWaiting,
		Notes:     utils.NewNullString(req.Notes),
		CreatedAt: s.now(),
	}
	var queueLength int
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		active, err := s.waitingRepo.HasActivePhone(ctx, exec, phone)
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("%w: phone '%s' is already waiting", models.ErrConflict, phone)
		}
		if _, err := s.waitingRepo.Create(ctx, exec, w); err != nil {
			return err
		}
		queueLength, err = s.waitingRepo.CountWaiting(ctx, exec)
		return err
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Waiting entry added", map[string]interface{}{"waiting_id": w.ID, "party_size": w.PartySize, "queue_length": queueLength})
	s.publish(ctx, w, queueLength)
	return w, nil
}

func (s *waitingService) Call(ctx context.Context, waitingID int64) (*models.Waiting, error) {
	return s.transition(ctx, waitingID, func(w *models.Waiting, now time.Time) error {
		return w.Call(now)
	})
}

func (s *waitingService) Seat(ctx context.Context, waitingID, tableID int64) (*models.Waiting, error) {
	if err := validateTableID(tableID, s.maxTables); err != nil {
		return nil, err
	}
	return s.transition(ctx, waitingID, func(w *models.Waiting, now time.Time) error {
		return w.Seat(now, tableID)
	})
}

func (s *waitingService) Cancel(ctx context.Context, waitingID int64) (*models.Waiting, error) {
	return s.transition(ctx, waitingID, func(w *models.Waiting, now time.Time) error {
		return w.Cancel(now)
	})
}

func (s *waitingService) transition(ctx context.Context, waitingID int64, apply func(*models.Waiting, time.Time) error) (*models.Waiting, error) {
	var w *models.Waiting
	var queueLength int
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		w, err = s.waitingRepo.GetByID(ctx, exec, waitingID, true)
		if err != nil {
			return err
		}
		if err := apply(w, s.now()); err != nil {
			return err
		}
		if err := s.waitingRepo.UpdateStatus(ctx, exec, w); err != nil {
			return err
		}
		queueLength, err = s.waitingRepo.CountWaiting(ctx, exec)
		return err
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Waiting entry updated", map[string]interface{}{"waiting_id": w.ID, "status": w.Status, "queue_length": queueLength})
	s.publish(ctx, w, queueLength)
	return w, nil
}

func (s *waitingService) publish(ctx context.Context, w *models.Waiting, queueLength int) {
	s.notifier.Notify(ctx, models.WaitingChangedEvent{
		WaitingID:   w.ID,
		Status:      w.Status,
		Name:        w.Name,
		PartySize:   w.PartySize,
		TableID:     w.TableID,
		QueueLength: queueLength,
	}, models.AdminChannel())
}

// ActiveQueue lists waiting and called parties in arrival order.
func (s *waitingService) ActiveQueue(ctx context.Context) ([]models.Waiting, error) {
	return s.waitingRepo.ListActive(ctx)
}

// TodayStats counts today's entries by current status, in server local time.
func (s *waitingService) TodayStats(ctx context.Context) (*models.WaitingStats, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	counts, err := s.waitingRepo.CountByStatusSince(ctx, startOfDay)
	if err != nil {
		return nil, err
	}
	stats := &models.WaitingStats{Date: startOfDay.Format("2006-01-02")}
	for status, n := range counts {
		stats.Add(status, n)
	}
	return stats, nil
}
