package realtime

import (
	"context"
	"sync"
	"time"

	"table_order_backend/pkg/utils"

	"github.com/google/uuid"
)

// Transport is the write side of one live client connection.
// Write is only ever called from the connection's writer goroutine.
type Transport interface {
	Write(ctx context.Context, payload []byte) error
	Close() error
}

// Pinger is implemented by transports that need keepalive frames.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Conn is one registered session. It owns a bounded outbound queue drained by
// a single writer goroutine, so messages reach the client in enqueue order.
type Conn struct {
	ID      string
	TableID int64

	transport Transport
	registry  *Registry
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(r *Registry, tableID int64, t Transport) *Conn {
	return &Conn{
		ID:        uuid.NewString(),
		TableID:   tableID,
		transport: t,
		registry:  r,
		send:      make(chan []byte, r.opts.SendBuffer),
		done:      make(chan struct{}),
	}
}

// Done is closed once the connection has been unregistered or failed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// enqueue never blocks. It reports false when the queue is full or the
// connection is already closed.
func (c *Conn) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Conn) writeLoop(writeTimeout, pingInterval time.Duration) {
	var ping <-chan time.Time
	pinger, canPing := c.transport.(Pinger)
	if canPing && pingInterval > 0 {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := c.write(writeTimeout, func(ctx context.Context) error { return c.transport.Write(ctx, payload) }); err != nil {
				utils.LogWarn("Dropping connection after failed write", map[string]interface{}{
					"conn_id": c.ID, "table_id": c.TableID, "error": err.Error(),
				})
				c.registry.Unregister(c)
				return
			}
		case <-ping:
			if err := c.write(writeTimeout, pinger.Ping); err != nil {
				utils.LogDebug("Ping failed", map[string]interface{}{"conn_id": c.ID, "table_id": c.TableID})
				c.registry.Unregister(c)
				return
			}
		}
	}
}

func (c *Conn) write(timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx)
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.transport.Close(); err != nil {
			utils.LogDebug("Transport close failed", map[string]interface{}{"conn_id": c.ID, "error": err.Error()})
		}
	})
}
