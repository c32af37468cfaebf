package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"table_order_backend/internal/models"
	"table_order_backend/internal/repositories"
	"table_order_backend/internal/setmenu"
)

// memStore is an in-memory stand-in for every repository plus the transactor.
// WithinTx snapshots the maps and restores them when fn fails.
type memStore struct {
	menu     map[int64]models.MenuItem
	orders   map[int64]models.Order
	items    map[int64]models.OrderItem
	waitings map[int64]models.Waiting
	chats    []models.ChatMessage
	nextID   int64
	failOn   string
}

func newMemStore() *memStore {
	return &memStore{
		menu:     map[int64]models.MenuItem{},
		orders:   map[int64]models.Order{},
		items:    map[int64]models.OrderItem{},
		waitings: map[int64]models.Waiting{},
		nextID:   1000,
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) fail(op string) error {
	if m.failOn == op {
		return fmt.Errorf("%w: %s failed", repositories.ErrDatabaseError, op)
	}
	return nil
}

func (m *memStore) addMenu(items ...models.MenuItem) {
	for _, it := range items {
		m.menu[it.ID] = it
	}
}

// --- Transactor ---

func (m *memStore) Executor() repositories.SQLExecutor { return nil }

func (m *memStore) WithinTx(_ context.Context, fn func(repositories.SQLExecutor) error) error {
	menu, orders, items, waitings, chats := cloneMap(m.menu), cloneMap(m.orders), cloneMap(m.items), cloneMap(m.waitings), append([]models.ChatMessage(nil), m.chats...)
	if err := fn(nil); err != nil {
		m.menu, m.orders, m.items, m.waitings, m.chats = menu, orders, items, waitings, chats
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// --- MenuRepository ---

func (m *memStore) CreateItem(_ context.Context, _ repositories.SQLExecutor, item *models.MenuItem) (int64, error) {
	if err := m.fail("CreateItem"); err != nil {
		return 0, err
	}
	item.ID = m.id()
	m.menu[item.ID] = *item
	return item.ID, nil
}

func (m *memStore) GetItemByID(_ context.Context, id int64) (*models.MenuItem, error) {
	it, ok := m.menu[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &it, nil
}

func (m *memStore) GetItems(_ context.Context, filters models.MenuFilters) ([]models.MenuItem, error) {
	out := []models.MenuItem{}
	for _, it := range m.menu {
		if !filters.IncludeInactive && !it.IsActive {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetItemsByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int64) (map[int64]models.MenuItem, error) {
	if err := m.fail("GetItemsByIDs"); err != nil {
		return nil, err
	}
	out := map[int64]models.MenuItem{}
	for _, id := range ids {
		if it, ok := m.menu[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (m *memStore) UpdateItem(_ context.Context, _ repositories.SQLExecutor, item *models.MenuItem) error {
	if _, ok := m.menu[item.ID]; !ok {
		return repositories.ErrNotFound
	}
	m.menu[item.ID] = *item
	return nil
}

func (m *memStore) SetActive(_ context.Context, _ repositories.SQLExecutor, id int64, active bool) error {
	it, ok := m.menu[id]
	if !ok {
		return repositories.ErrNotFound
	}
	it.IsActive = active
	m.menu[id] = it
	return nil
}

func (m *memStore) CountItems(context.Context) (int, error) { return len(m.menu), nil }

// --- OrderRepository ---

func (m *memStore) CreateOrder(_ context.Context, _ repositories.SQLExecutor, order *models.Order) (int64, error) {
	if err := m.fail("CreateOrder"); err != nil {
		return 0, err
	}
	order.ID = m.id()
	stored := *order
	stored.Items = nil
	m.orders[order.ID] = stored
	return order.ID, nil
}

func (m *memStore) GetOrderByID(_ context.Context, _ repositories.SQLExecutor, orderID int64, _ bool) (*models.Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", repositories.ErrNotFound, orderID)
	}
	return &o, nil
}

func (m *memStore) GetOrders(_ context.Context, filters models.OrderFilters) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range m.orders {
		if filters.TableID != nil && o.TableID != *filters.TableID {
			continue
		}
		if len(filters.PaymentStatus) > 0 && !containsString(filters.PaymentStatus, string(o.PaymentStatus)) {
			continue
		}
		if filters.ConfirmedSince != nil && (o.ConfirmedAt == nil || o.ConfirmedAt.Before(*filters.ConfirmedSince)) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if filters.OldestFirst {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *memStore) UpdatePaymentStatus(_ context.Context, _ repositories.SQLExecutor, order *models.Order) error {
	if err := m.fail("UpdatePaymentStatus"); err != nil {
		return err
	}
	stored := *order
	stored.Items = nil
	m.orders[order.ID] = stored
	return nil
}

func (m *memStore) CreateOrderItem(_ context.Context, _ repositories.SQLExecutor, item *models.OrderItem) (int64, error) {
	if err := m.fail("CreateOrderItem"); err != nil {
		return 0, err
	}
	item.ID = m.id()
	m.items[item.ID] = *item
	return item.ID, nil
}

func (m *memStore) GetOrderItemByID(_ context.Context, _ repositories.SQLExecutor, itemID int64, _ bool) (*models.OrderItem, error) {
	it, ok := m.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: order item %d", repositories.ErrNotFound, itemID)
	}
	return &it, nil
}

func (m *memStore) GetItemsByOrderIDs(_ context.Context, _ repositories.SQLExecutor, orderIDs []int64, _ bool) (map[int64][]models.OrderItem, error) {
	out := map[int64][]models.OrderItem{}
	for _, it := range m.items {
		for _, id := range orderIDs {
			if it.OrderID == id {
				out[id] = append(out[id], it)
			}
		}
	}
	for id := range out {
		list := out[id]
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return out, nil
}

func (m *memStore) UpdateOrderItem(_ context.Context, _ repositories.SQLExecutor, item *models.OrderItem) error {
	if err := m.fail("UpdateOrderItem"); err != nil {
		return err
	}
	m.items[item.ID] = *item
	return nil
}

func (m *memStore) itemsOf(orderID int64) []models.OrderItem {
	byOrder, _ := m.GetItemsByOrderIDs(context.Background(), nil, []int64{orderID}, false)
	return byOrder[orderID]
}

// --- WaitingRepository ---

func (m *memStore) Create(_ context.Context, _ repositories.SQLExecutor, w *models.Waiting) (int64, error) {
	if err := m.fail("Create"); err != nil {
		return 0, err
	}
	for _, existing := range m.waitings {
		if existing.Phone == w.Phone && existing.Status == models.WaitingWaiting {
			return 0, fmt.Errorf("%w: waitings_active_phone", repositories.ErrDuplicateKey)
		}
	}
	w.ID = m.id()
	m.waitings[w.ID] = *w
	return w.ID, nil
}

func (m *memStore) GetByID(_ context.Context, _ repositories.SQLExecutor, id int64, _ bool) (*models.Waiting, error) {
	w, ok := m.waitings[id]
	if !ok {
		return nil, fmt.Errorf("%w: waiting entry %d", repositories.ErrNotFound, id)
	}
	return &w, nil
}

func (m *memStore) HasActivePhone(_ context.Context, _ repositories.SQLExecutor, phone string) (bool, error) {
	for _, w := range m.waitings {
		if w.Phone == phone && w.Status == models.WaitingWaiting {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, w *models.Waiting) error {
	m.waitings[w.ID] = *w
	return nil
}

func (m *memStore) ListActive(context.Context) ([]models.Waiting, error) {
	out := []models.Waiting{}
	for _, w := range m.waitings {
		if w.Status == models.WaitingWaiting || w.Status == models.WaitingCalled {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CountWaiting(_ context.Context, _ repositories.SQLExecutor) (int, error) {
	n := 0
	for _, w := range m.waitings {
		if w.Status == models.WaitingWaiting {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountByStatusSince(_ context.Context, since time.Time) (map[models.WaitingStatus]int, error) {
	out := map[models.WaitingStatus]int{}
	for _, w := range m.waitings {
		if !w.CreatedAt.Before(since) {
			out[w.Status]++
		}
	}
	return out, nil
}

// --- ChatRepository ---

func (m *memStore) CreateMessage(_ context.Context, _ repositories.SQLExecutor, msg *models.ChatMessage) (int64, error) {
	if err := m.fail("CreateMessage"); err != nil {
		return 0, err
	}
	msg.ID = m.id()
	m.chats = append(m.chats, *msg)
	return msg.ID, nil
}

func (m *memStore) GetVisibleMessages(_ context.Context, tableID, afterID int64, limit int) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, c := range m.chats {
		if c.ID <= afterID {
			continue
		}
		if c.TargetTableID == nil || *c.TargetTableID == tableID || c.SenderTableID == tableID {
			out = append(out, c)
		}
	}
	if len(out) > limit {
		if afterID > 0 {
			out = out[:limit]
		} else {
			out = out[len(out)-limit:]
		}
	}
	return out, nil
}

// --- collaborators ---

type sentEvent struct {
	event   models.Event
	targets []models.Target
}

type recordingNotifier struct {
	sent []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event models.Event, targets ...models.Target) {
	n.sent = append(n.sent, sentEvent{event: event, targets: targets})
}

func (n *recordingNotifier) types() []models.EventType {
	out := make([]models.EventType, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.event.EventType()
	}
	return out
}

type fakePresence struct {
	names map[int64]string
}

func newFakePresence() *fakePresence { return &fakePresence{names: map[int64]string{}} }

func (p *fakePresence) Nickname(tableID int64) string {
	if n, ok := p.names[tableID]; ok {
		return n
	}
	return fmt.Sprintf("Table %d", tableID)
}

func (p *fakePresence) SetNickname(tableID int64, name string) {
	if strings.TrimSpace(name) == "" {
		delete(p.names, tableID)
		return
	}
	p.names[tableID] = strings.TrimSpace(name)
}

func (p *fakePresence) OnlineTables() []models.OnlineTable {
	return []models.OnlineTable{{TableID: 1, Nickname: p.Nickname(1)}}
}

// --- fixtures ---

const (
	beerID        int64 = 1
	dakgalbiID    int64 = 2
	tteokbokkiID  int64 = 3
	coupleSetID   int64 = 10
	tableChargeID int64 = 20
	retiredDishID int64 = 30
)

func seedMenu(m *memStore) {
	m.addMenu(
		models.MenuItem{ID: beerID, Name: "Beer", Price: 5000, Category: models.CategoryDrink, IsActive: true},
		models.MenuItem{ID: dakgalbiID, Name: "Dakgalbi", Price: 18000, Category: models.CategoryDish, IsActive: true},
		models.MenuItem{ID: tteokbokkiID, Name: "Tteokbokki", Price: 12000, Category: models.CategoryDish, IsActive: true},
		models.MenuItem{ID: coupleSetID, Name: "Couple Set", Price: 39000, Category: models.CategorySetMenu, IsActive: true},
		models.MenuItem{ID: tableChargeID, Name: "Table charge", Price: 3000, Category: models.CategoryTableCharge, IsActive: true},
		models.MenuItem{ID: retiredDishID, Name: "Retired dish", Price: 9000, Category: models.CategoryDish, IsActive: false},
	)
}

type orderFixture struct {
	store    *memStore
	notifier *recordingNotifier
	presence *fakePresence
	orders   OrderService
	kitchen  KitchenService
	menu     MenuService
}

func newOrderFixture() *orderFixture {
	store := newMemStore()
	seedMenu(store)
	notifier := &recordingNotifier{}
	presence := newFakePresence()
	menu := NewMenuService(store, store, setmenu.Default())
	return &orderFixture{
		store:    store,
		notifier: notifier,
		presence: presence,
		menu:     menu,
		orders:   NewOrderService(store, store, store, menu, notifier, presence, OrderOptions{MaxTables: 10}),
		kitchen:  NewKitchenService(store, store, notifier),
	}
}
