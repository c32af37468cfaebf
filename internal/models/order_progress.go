package models

// IsKitchenComplete reports whether every item that needs kitchen work is
// completed. Pseudo-items and table charges are ignored, so an order without
// kitchen work is trivially complete. Cancelled kitchen items keep the order
// incomplete; a cancelled order never reaches the kitchen board.
func IsKitchenComplete(items []OrderItem) bool {
	for i := range items {
		if !items[i].IsKitchenWork() {
			continue
		}
		if items[i].CookingStatus != CookingCompleted {
			return false
		}
	}
	return true
}

// KitchenProgress counts kitchen items per cooking status.
func KitchenProgress(items []OrderItem) map[CookingStatus]int {
	progress := make(map[CookingStatus]int)
	for i := range items {
		if items[i].IsKitchenWork() {
			progress[items[i].CookingStatus]++
		}
	}
	return progress
}
