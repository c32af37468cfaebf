package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"table_order_backend/internal/models"
	"table_order_backend/internal/repositories"
	"table_order_backend/internal/setmenu"
	"table_order_backend/pkg/utils"
)

// --- Menu DTOs ---
type CreateMenuItemRequest struct {
	Name        string  `json:"name" binding:"required,max=100"`
	Price       int64   `json:"price" binding:"gte=0"`
	Category    string  `json:"category" binding:"required"`
	IsActive    *bool   `json:"is_active"` // Defaults to true when omitted
	Description *string `json:"description"`
	ImageRef    *string `json:"image_ref"`
}

type UpdateMenuItemRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Price       *int64  `json:"price" binding:"omitempty,gte=0"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	ImageRef    *string `json:"image_ref"`
}

// MenuService manages the catalog and owns the set composition table resolved
// against it.
type MenuService interface {
	CreateItem(ctx context.Context, req CreateMenuItemRequest) (*models.MenuItem, error)
	GetItem(ctx context.Context, itemID int64) (*models.MenuItem, error)
	ListItems(ctx context.Context, filters models.MenuFilters) ([]models.MenuItem, error)
	UpdateItem(ctx context.Context, itemID int64, req UpdateMenuItemRequest) (*models.MenuItem, error)
	DeactivateItem(ctx context.Context, itemID int64) error
	ActivateItem(ctx context.Context, itemID int64) error
	SetTable(ctx context.Context) (*setmenu.Table, error)
}

type menuService struct {
	menuRepo repositories.MenuRepository
	tx       repositories.Transactor
	sets     *setmenu.Document

	mu       sync.Mutex
	setTable *setmenu.Table
}

// NewMenuService creates a new instance of MenuService.
func NewMenuService(repo repositories.MenuRepository, tx repositories.Transactor, sets *setmenu.Document) MenuService {
	if sets == nil {
		sets = setmenu.Default()
	}
	return &menuService{menuRepo: repo, tx: tx, sets: sets}
}

func (s *menuService) CreateItem(ctx context.Context, req CreateMenuItemRequest) (*models.MenuItem, error) {
	if utils.IsEmpty(req.Name) {
		return nil, fmt.Errorf("%w: menu item name cannot be empty", models.ErrValidation)
	}
	if !models.IsValidMenuCategory(req.Category) {
		return nil, fmt.Errorf("%w: unknown category '%s'", models.ErrValidation, req.Category)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", models.ErrValidation)
	}
	item := &models.MenuItem{
		Name:        strings.TrimSpace(req.Name),
		Price:       req.Price,
		Category:    models.MenuCategory(req.Category),
		IsActive:    req.IsActive == nil || *req.IsActive,
		Description: req.Description,
		ImageRef:    req.ImageRef,
	}
	if _, err := s.menuRepo.CreateItem(ctx, s.tx.Executor(), item); err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	s.invalidate()
	return item, nil
}

func (s *menuService) GetItem(ctx context.Context, itemID int64) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item %d: %w", itemID, err)
	}
	return item, nil
}

func (s *menuService) ListItems(ctx context.Context, filters models.MenuFilters) ([]models.MenuItem, error) {
	if filters.Category != nil && *filters.Category != "" && !models.IsValidMenuCategory(*filters.Category) {
		return nil, fmt.Errorf("%w: unknown category '%s'", models.ErrValidation, *filters.Category)
	}
	return s.menuRepo.GetItems(ctx, filters)
}

// UpdateItem edits catalog fields. Existing orders keep the price they were placed at.
func (s *menuService) UpdateItem(ctx context.Context, itemID int64, req UpdateMenuItemRequest) (*models.MenuItem, error) {
	var updated *models.MenuItem
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		items, err := s.menuRepo.GetItemsByIDs(ctx, exec, []int64{itemID})
		if err != nil {
			return err
		}
		item, ok := items[itemID]
		if !ok {
			return fmt.Errorf("%w: menu item %d", repositories.ErrNotFound, itemID)
		}
		if req.Name != nil {
			if utils.IsEmpty(*req.Name) {
				return fmt.Errorf("%w: menu item name cannot be empty", models.ErrValidation)
			}
			item.Name = strings.TrimSpace(*req.Name)
		}
		if req.Price != nil {
			if *req.Price < 0 {
				return fmt.Errorf("%w: price cannot be negative", models.ErrValidation)
			}
			item.Price = *req.Price
		}
		if req.Category != nil {
			if !models.IsValidMenuCategory(*req.Category) {
				return fmt.Errorf("%w: unknown category '%s'", models.ErrValidation, *req.Category)
			}
			item.Category = models.MenuCategory(*req.Category)
		}
		if req.Description != nil {
			item.Description = utils.NewNullString(*req.Description)
		}
		if req.ImageRef != nil {
			item.ImageRef = utils.NewNullString(*req.ImageRef)
		}
		if err := s.menuRepo.UpdateItem(ctx, exec, &item); err != nil {
			return err
		}
		updated = &item
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update menu item %d: %w", itemID, err)
	}
	s.invalidate()
	return updated, nil
}

// DeactivateItem hides the item from new orders. Historical order items keep referencing it.
func (s *menuService) DeactivateItem(ctx context.Context, itemID int64) error {
	return s.setActive(ctx, itemID, false)
}

func (s *menuService) ActivateItem(ctx context.Context, itemID int64) error {
	return s.setActive(ctx, itemID, true)
}

func (s *menuService) setActive(ctx context.Context, itemID int64, active bool) error {
	if err := s.menuRepo.SetActive(ctx, s.tx.Executor(), itemID, active); err != nil {
		return fmt.Errorf("failed to change availability of menu item %d: %w", itemID, err)
	}
	s.invalidate()
	return nil
}

// SetTable returns the composition table bound to the current active catalog.
// It is rebuilt lazily after any catalog change.
func (s *menuService) SetTable(ctx context.Context) (*setmenu.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setTable != nil {
		return s.setTable, nil
	}

	catalog, err := s.menuRepo.GetItems(ctx, models.MenuFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog for set menus: %w", err)
	}
	table, warnings := s.sets.Resolve(catalog)
	for _, w := range warnings {
		utils.LogWarn("Set menu component skipped", map[string]interface{}{"detail": w})
	}
	utils.LogDebug("Set menu table resolved", map[string]interface{}{"sets": table.Len()})
	s.setTable = table
	return table, nil
}

func (s *menuService) invalidate() {
	s.mu.Lock()
	s.setTable = nil
	s.mu.Unlock()
}
