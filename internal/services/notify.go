package services

import (
	"context"
	"fmt"

	"table_order_backend/internal/models"
)

// EventNotifier delivers committed domain events. Implementations must not block
// and never fail the caller.
type EventNotifier interface {
	Notify(ctx context.Context, event models.Event, targets ...models.Target)
}

// TablePresence exposes live-session state the services read or update.
type TablePresence interface {
	Nickname(tableID int64) string
	SetNickname(tableID int64, name string)
	OnlineTables() []models.OnlineTable
}

// validateTableID checks a physical table id. The admin channel id is rejected.
func validateTableID(tableID int64, maxTables int) error {
	if tableID < 1 || (maxTables > 0 && tableID > int64(maxTables)) {
		return fmt.Errorf("%w: table id %d is outside 1..%d", models.ErrValidation, tableID, maxTables)
	}
	return nil
}
