// Package setmenu turns a validated cart into kitchen-trackable records,
// expanding composite set menus into their components.
package setmenu

import "table_order_backend/internal/models"

// Line is one validated cart line: an active catalog item and a positive quantity.
type Line struct {
	Item     models.MenuItem
	Quantity int
}

// Record describes one OrderItem to create.
type Record struct {
	MenuItemID     *int64
	Quantity       int
	IsSetComponent bool
	ParentSetName  *string
	Notes          *string
}

// Decompose maps cart lines to records. Sets produce one record per component
// with quantity scaled by the set quantity; every other line passes through
// unchanged. Output order follows the input lines, then component order.
func Decompose(lines []Line, table *Table) []Record {
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		set, ok := lookup(table, line.Item.ID)
		if !ok {
			id := line.Item.ID
			records = append(records, Record{MenuItemID: &id, Quantity: line.Quantity})
			continue
		}
		name := set.name
		for _, c := range set.components {
			records = append(records, Record{
				MenuItemID:     c.MenuItemID,
				Quantity:       c.Count * line.Quantity,
				IsSetComponent: true,
				ParentSetName:  &name,
				Notes:          c.Notes,
			})
		}
	}
	return records
}

func lookup(table *Table, id int64) (resolvedSet, bool) {
	if table == nil {
		return resolvedSet{}, false
	}
	set, ok := table.sets[id]
	return set, ok
}
