package realtime

import (
	"context"

	"table_order_backend/internal/models"
	"table_order_backend/pkg/utils"
)

// Sink receives a copy of every encoded event, e.g. a message broker mirror.
type Sink interface {
	Publish(ctx context.Context, eventType models.EventType, payload []byte) error
}

// Notifier delivers domain events to live sessions. Delivery is best effort:
// Notify never blocks on a slow client and never reports an error.
type Notifier struct {
	registry *Registry
	sink     Sink
}

// NewNotifier builds a notifier over registry. sink may be nil.
func NewNotifier(registry *Registry, sink Sink) *Notifier {
	return &Notifier{registry: registry, sink: sink}
}

// Notify sends one copy of event to every connection selected by targets.
// A connection whose queue is full is dropped; the client recovers by polling.
func (n *Notifier) Notify(ctx context.Context, event models.Event, targets ...models.Target) {
	payload, err := models.EncodeEvent(event)
	if err != nil {
		utils.LogError(err, "Failed to encode event", map[string]interface{}{"event_type": event.EventType()})
		return
	}

	conns := n.registry.recipients(targets...)
	delivered := 0
	for _, c := range conns {
		if c.enqueue(payload) {
			delivered++
			continue
		}
		utils.LogWarn("Outbound queue full, dropping connection", map[string]interface{}{
			"conn_id": c.ID, "table_id": c.TableID, "event_type": event.EventType(),
		})
		n.registry.Unregister(c)
	}
	utils.LogDebug("Event dispatched", map[string]interface{}{
		"event_type": event.EventType(), "recipients": len(conns), "delivered": delivered,
	})

	if n.sink != nil {
		if err := n.sink.Publish(context.WithoutCancel(ctx), event.EventType(), payload); err != nil {
			utils.LogError(err, "Failed to mirror event", map[string]interface{}{"event_type": event.EventType()})
		}
	}
}
