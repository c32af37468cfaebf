package models

import "time"

// MenuCategory classifies a sellable item.
type MenuCategory string

const (
	CategoryTableCharge MenuCategory = "table_charge"
	CategorySetMenu     MenuCategory = "set_menu"
	CategoryDish        MenuCategory = "dish"
	CategoryDrink       MenuCategory = "drink"
	CategorySide        MenuCategory = "side"
)

// IsValidMenuCategory checks if the provided string is a known MenuCategory.
func IsValidMenuCategory(category string) bool {
	switch MenuCategory(category) {
	case CategoryTableCharge,
		CategorySetMenu,
		CategoryDish,
		CategoryDrink,
		CategorySide:
		return true
	default:
		return false
	}
}

// MenuItem is a sellable catalog entry. Rows are never deleted; IsActive=false hides
// the item from new orders while historical order items keep referencing it.
type MenuItem struct {
	ID          int64        `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Price       int64        `json:"price" db:"price"` // minor currency units
	Category    MenuCategory `json:"category" db:"category"`
	IsActive    bool         `json:"is_active" db:"is_active"`
	Description *string      `json:"description,omitempty" db:"description"`
	ImageRef    *string      `json:"image_ref,omitempty" db:"image_ref"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// MenuFilters defines the available filters for listing the catalog.
type MenuFilters struct {
	Category        *string `form:"category"`
	IncludeInactive bool    `form:"include_inactive"`
}
