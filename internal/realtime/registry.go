// Package realtime tracks live table sessions and fans domain events out to them.
package realtime

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"table_order_backend/internal/models"
	"table_order_backend/pkg/utils"
)

// Options tunes per-connection buffering and write deadlines.
type Options struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	return o
}

// Registry maps table ids to live connections and holds per-table nicknames.
// Nicknames outlive connections for the lifetime of the process.
type Registry struct {
	opts Options

	mu        sync.Mutex
	conns     map[int64]map[*Conn]struct{}
	nicknames map[int64]string
	closed    bool
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:      opts.withDefaults(),
		conns:     make(map[int64]map[*Conn]struct{}),
		nicknames: make(map[int64]string),
	}
}

// Register adds a connection for tableID and starts its writer. Several
// connections per table are allowed. On a closed registry the returned
// connection is already done.
func (r *Registry) Register(tableID int64, t Transport) *Conn {
	c := newConn(r, tableID, t)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		c.close()
		return c
	}
	set, ok := r.conns[tableID]
	if !ok {
		set = make(map[*Conn]struct{})
		r.conns[tableID] = set
	}
	set[c] = struct{}{}
	count := len(set)
	r.mu.Unlock()

	go c.writeLoop(r.opts.WriteTimeout, r.opts.PingInterval)

	utils.LogInfo("Connection registered", map[string]interface{}{
		"conn_id": c.ID, "table_id": tableID, "table_connections": count,
	})
	return c
}

// Unregister removes the connection and closes its transport. Safe to call
// more than once and from any goroutine.
func (r *Registry) Unregister(c *Conn) {
	if c == nil {
		return
	}
	r.mu.Lock()
	removed := false
	if set, ok := r.conns[c.TableID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			removed = true
		}
		if len(set) == 0 {
			delete(r.conns, c.TableID)
		}
	}
	r.mu.Unlock()

	c.close()
	if removed {
		utils.LogInfo("Connection unregistered", map[string]interface{}{"conn_id": c.ID, "table_id": c.TableID})
	}
}

// SessionsFor returns a snapshot of the live connections of one table.
func (r *Registry) SessionsFor(tableID int64) []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Conn, 0, len(r.conns[tableID]))
	for c := range r.conns[tableID] {
		out = append(out, c)
	}
	return out
}

// AllTableIDs lists physical tables with at least one live connection.
// The admin channel is not a table and is never included.
func (r *Registry) AllTableIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tableIDsLocked()
}

func (r *Registry) tableIDsLocked() []int64 {
	ids := make([]int64, 0, len(r.conns))
	for id, set := range r.conns {
		if id != models.AdminTableID && len(set) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsOnline reports whether tableID has a live connection.
func (r *Registry) IsOnline(tableID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[tableID]) > 0
}

// SetNickname sets the display name of a table. A blank name restores the default.
func (r *Registry) SetNickname(tableID int64, name string) {
	name = strings.TrimSpace(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		delete(r.nicknames, tableID)
		return
	}
	r.nicknames[tableID] = name
}

// Nickname returns the table's display name, "Table {id}" when unset.
func (r *Registry) Nickname(tableID int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nicknameLocked(tableID)
}

func (r *Registry) nicknameLocked(tableID int64) string {
	if name, ok := r.nicknames[tableID]; ok {
		return name
	}
	return DefaultNickname(tableID)
}

// DefaultNickname is the placeholder shown for tables without a nickname.
func DefaultNickname(tableID int64) string {
	return fmt.Sprintf("Table %d", tableID)
}

// OnlineTables lists online physical tables with their nicknames, by table id.
func (r *Registry) OnlineTables() []models.OnlineTable {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.tableIDsLocked()
	out := make([]models.OnlineTable, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.OnlineTable{TableID: id, Nickname: r.nicknameLocked(id)})
	}
	return out
}

// recipients resolves targets to a deduplicated connection list. The list is
// copied under the lock and used after it is released.
func (r *Registry) recipients(targets ...models.Target) []*Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[*Conn]struct{})
	var out []*Conn
	add := func(tableID int64) {
		for c := range r.conns[tableID] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	for _, t := range targets {
		switch t.Kind {
		case models.TargetTable:
			add(t.TableID)
		case models.TargetAdmin:
			add(models.AdminTableID)
		case models.TargetAllTables:
			for _, id := range r.tableIDsLocked() {
				add(id)
			}
		}
	}
	return out
}

// Close unregisters every connection. Later registrations are closed immediately.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	var all []*Conn
	for _, set := range r.conns {
		for c := range set {
			all = append(all, c)
		}
	}
	r.conns = make(map[int64]map[*Conn]struct{})
	r.mu.Unlock()

	for _, c := range all {
		c.close()
	}
	utils.LogInfo("Connection registry closed", map[string]interface{}{"closed_connections": len(all)})
}
