package services

import (
	"context"
	"testing"
	"time"

	"table_order_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitOrderPricesSurvivingEntriesOnly(t *testing.T) {
	f := newOrderFixture()
	cart := []byte(`{"2": 2, "10": 1, "20": "1", "30": 3, "999": 1, "3": 0, "abc": 5, "1": -2}`)

	order, err := f.orders.SubmitOrder(context.Background(), 4, cart)
	require.NoError(t, err)

	assert.Equal(t, int64(2*18000+39000+3000), order.Amount)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, int64(4), order.TableID)

	items := f.store.itemsOf(order.ID)
	require.Len(t, items, 6)

	assert.Equal(t, dakgalbiID, *items[0].MenuItemID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.False(t, items[0].IsSetComponent)

	for _, it := range items[1:5] {
		assert.True(t, it.IsSetComponent)
		assert.Equal(t, "Couple Set", *it.ParentSetName)
	}
	assert.Equal(t, beerID, *items[3].MenuItemID)
	assert.Equal(t, 2, items[3].Quantity)
	assert.Nil(t, items[4].MenuItemID)
	assert.Equal(t, models.CookingCompleted, items[4].CookingStatus, "raffle ticket is auto-completed")

	assert.Equal(t, tableChargeID, *items[5].MenuItemID)
	assert.Equal(t, models.CookingCompleted, items[5].CookingStatus, "table charge is auto-completed")
	assert.Equal(t, models.CookingPending, items[0].CookingStatus)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.NewOrderEvent{OrderID: order.ID, TableID: 4, Amount: order.Amount}, f.notifier.sent[0].event)
	assert.Equal(t, []models.Target{models.AdminChannel()}, f.notifier.sent[0].targets)
}

func TestPriceIsSnapshotAtSubmit(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	order, err := f.orders.SubmitOrder(ctx, 1, []byte(`{"2": 1}`))
	require.NoError(t, err)

	newPrice := int64(25000)
	_, err = f.menu.UpdateItem(ctx, dakgalbiID, UpdateMenuItemRequest{Price: &newPrice})
	require.NoError(t, err)

	reloaded, err := f.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(18000), reloaded.Amount)
}

func TestSubmitOrderWithOnlyInvalidEntriesIsEmpty(t *testing.T) {
	f := newOrderFixture()

	_, err := f.orders.SubmitOrder(context.Background(), 2, []byte(`{"30": 1, "999": 2, "2": 0, "3": -1}`))
	assert.ErrorIs(t, err, models.ErrEmptyOrder)
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.store.items)
	assert.Empty(t, f.notifier.sent)
}

func TestSubmitOrderRejectsMalformedCart(t *testing.T) {
	f := newOrderFixture()
	for _, raw := range []string{`[1, 2]`, `{"2": "two"}`, `{"2": null}`, `{"2": {"qty": 1}}`, `not json`} {
		_, err := f.orders.SubmitOrder(context.Background(), 2, []byte(raw))
		assert.ErrorIs(t, err, models.ErrValidation, raw)
	}
	assert.Empty(t, f.store.orders)
}

func TestSubmitOrderRejectsReservedTable(t *testing.T) {
	f := newOrderFixture()
	_, err := f.orders.SubmitOrder(context.Background(), models.AdminTableID, []byte(`{"2": 1}`))
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.orders.SubmitOrder(context.Background(), 11, []byte(`{"2": 1}`))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSubmitOrderRollsBackOnStorageFailure(t *testing.T) {
	f := newOrderFixture()
	f.store.failOn = "CreateOrderItem"

	_, err := f.orders.SubmitOrder(context.Background(), 3, []byte(`{"2": 1, "3": 1}`))
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.store.items)
	assert.Empty(t, f.notifier.sent)
}

func TestConfirmOrder(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.orders.SubmitOrder(ctx, 5, []byte(`{"2": 1}`))
	require.NoError(t, err)

	confirmed, err := f.orders.ConfirmOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentConfirmed, confirmed.PaymentStatus)
	require.NotNil(t, confirmed.ConfirmedAt)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, models.EventStatusChanged, last.event.EventType())
	assert.Equal(t, []models.Target{models.ToTable(5), models.AdminChannel()}, last.targets)

	sent := len(f.notifier.sent)
	_, err = f.orders.ConfirmOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, f.notifier.sent, sent, "re-confirming does not notify again")

	_, err = f.orders.ConfirmOrder(ctx, 424242)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConfirmCancelledOrderFails(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.orders.SubmitOrder(ctx, 5, []byte(`{"2": 1}`))
	require.NoError(t, err)
	_, err = f.orders.CancelOrder(ctx, order.ID, nil)
	require.NoError(t, err)

	_, err = f.orders.ConfirmOrder(ctx, order.ID)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCancelConfirmedOrderCascades(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.orders.SubmitOrder(ctx, 6, []byte(`{"2": 1, "3": 1, "20": 1}`))
	require.NoError(t, err)
	_, err = f.orders.ConfirmOrder(ctx, order.ID)
	require.NoError(t, err)

	items := f.store.itemsOf(order.ID)
	_, err = f.kitchen.StartItem(ctx, items[0].ID)
	require.NoError(t, err)
	_, err = f.kitchen.CompleteItem(ctx, items[0].ID)
	require.NoError(t, err)

	reason := "guest left"
	cancelled, err := f.orders.CancelOrder(ctx, order.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCancelled, cancelled.PaymentStatus)

	items = f.store.itemsOf(order.ID)
	assert.Equal(t, models.CookingCompleted, items[0].CookingStatus, "completed dish stays completed")
	assert.Equal(t, models.CookingCancelled, items[1].CookingStatus)
	assert.Equal(t, &reason, items[1].CancelReason)
	assert.Equal(t, models.CookingCompleted, items[2].CookingStatus, "table charge was already completed")

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, models.OrderCancelledEvent{OrderID: order.ID, TableID: 6, Reason: &reason, CancelledItems: 1}, last.event)
}

func TestCancelWhileCookingIsRefused(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.orders.SubmitOrder(ctx, 6, []byte(`{"2": 1, "3": 1}`))
	require.NoError(t, err)
	_, err = f.orders.ConfirmOrder(ctx, order.ID)
	require.NoError(t, err)

	items := f.store.itemsOf(order.ID)
	_, err = f.kitchen.StartItem(ctx, items[0].ID)
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(ctx, order.ID, nil)
	assert.ErrorIs(t, err, models.ErrConflict)

	items = f.store.itemsOf(order.ID)
	assert.Equal(t, models.CookingCooking, items[0].CookingStatus)
	assert.Equal(t, models.CookingPending, items[1].CookingStatus)
	assert.Equal(t, models.PaymentConfirmed, f.store.orders[order.ID].PaymentStatus)
}

func TestCancelOrderTwice(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.orders.SubmitOrder(ctx, 6, []byte(`{"2": 1}`))
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(ctx, order.ID, nil)
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(ctx, order.ID, nil)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestBulkSetOrderStatus(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.orders.SubmitOrder(ctx, 7, []byte(`{"10": 1}`))
	require.NoError(t, err)

	_, err = f.orders.BulkSetOrderStatus(ctx, order.ID, "cooking")
	assert.ErrorIs(t, err, models.ErrInvalidState, "kitchen work needs a confirmed order")

	_, err = f.orders.ConfirmOrder(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.orders.BulkSetOrderStatus(ctx, order.ID, "pending")
	assert.ErrorIs(t, err, models.ErrValidation)

	updated, err := f.orders.BulkSetOrderStatus(ctx, order.ID, "completed")
	require.NoError(t, err)
	for _, it := range updated.Items {
		if it.IsPseudo() {
			continue
		}
		assert.Equal(t, models.CookingPending, it.CookingStatus, "pending cannot jump to completed")
	}

	updated, err = f.orders.BulkSetOrderStatus(ctx, order.ID, "cooking")
	require.NoError(t, err)
	for _, it := range updated.Items {
		if it.IsPseudo() {
			assert.Equal(t, models.CookingCompleted, it.CookingStatus)
			continue
		}
		assert.Equal(t, models.CookingCooking, it.CookingStatus)
	}

	updated, err = f.orders.BulkSetOrderStatus(ctx, order.ID, "completed")
	require.NoError(t, err)
	assert.True(t, models.IsKitchenComplete(updated.Items))

	last := f.notifier.sent[len(f.notifier.sent)-1].event.(models.StatusChangedEvent)
	assert.True(t, last.OrderComplete)
	assert.Equal(t, "completed", last.Status)
}

func TestBulkCancelSkipsCompletedItems(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	order, err := f.orders.SubmitOrder(ctx, 7, []byte(`{"2": 1, "3": 1}`))
	require.NoError(t, err)
	_, err = f.orders.ConfirmOrder(ctx, order.ID)
	require.NoError(t, err)

	items := f.store.itemsOf(order.ID)
	_, err = f.kitchen.StartItem(ctx, items[0].ID)
	require.NoError(t, err)
	_, err = f.kitchen.CompleteItem(ctx, items[0].ID)
	require.NoError(t, err)

	updated, err := f.orders.BulkSetOrderStatus(ctx, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.CookingCompleted, updated.Items[0].CookingStatus)
	assert.Equal(t, models.CookingCancelled, updated.Items[1].CookingStatus)
}

func TestKitchenBoardSplitsByCompletion(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	f.presence.SetNickname(2, "window seat")

	done, err := f.orders.SubmitOrder(ctx, 2, []byte(`{"2": 1}`))
	require.NoError(t, err)
	open, err := f.orders.SubmitOrder(ctx, 3, []byte(`{"3": 1}`))
	require.NoError(t, err)
	_, err = f.orders.SubmitOrder(ctx, 4, []byte(`{"3": 1}`)) // never confirmed
	require.NoError(t, err)

	for _, id := range []int64{done.ID, open.ID} {
		_, err = f.orders.ConfirmOrder(ctx, id)
		require.NoError(t, err)
	}
	_, err = f.orders.BulkSetOrderStatus(ctx, done.ID, "cooking")
	require.NoError(t, err)
	_, err = f.orders.BulkSetOrderStatus(ctx, done.ID, "completed")
	require.NoError(t, err)

	board, err := f.orders.KitchenBoard(ctx)
	require.NoError(t, err)
	require.Len(t, board.Completed, 1)
	assert.Equal(t, int64(2), board.Completed[0].TableID)
	assert.Equal(t, "window seat", board.Completed[0].Nickname)
	require.Len(t, board.InProgress, 1)
	assert.Equal(t, int64(3), board.InProgress[0].TableID)
	assert.Equal(t, open.ID, board.InProgress[0].Orders[0].ID)
	assert.Equal(t, map[models.CookingStatus]int{models.CookingPending: 1}, board.InProgress[0].Progress)
	assert.Equal(t, map[models.CookingStatus]int{models.CookingCompleted: 1}, board.Completed[0].Progress)
}

func TestKitchenBoardUsesConfirmationTime(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	svc := f.orders.(*orderService)
	now := time.Now()

	svc.now = func() time.Time { return now.Add(-13 * time.Hour) }
	stale, err := f.orders.SubmitOrder(ctx, 5, []byte(`{"2": 1}`))
	require.NoError(t, err)
	oldConfirmed, err := f.orders.SubmitOrder(ctx, 6, []byte(`{"3": 1}`))
	require.NoError(t, err)
	_, err = f.orders.ConfirmOrder(ctx, oldConfirmed.ID)
	require.NoError(t, err)

	svc.now = func() time.Time { return now }
	_, err = f.orders.ConfirmOrder(ctx, stale.ID)
	require.NoError(t, err)

	board, err := f.orders.KitchenBoard(ctx)
	require.NoError(t, err)
	require.Len(t, board.InProgress, 1, "orders confirmed before the lookback window are off the board")
	assert.Equal(t, int64(5), board.InProgress[0].TableID)
	assert.Equal(t, stale.ID, board.InProgress[0].Orders[0].ID)
	assert.Empty(t, board.Completed)
}

func TestPendingOrdersAndHistory(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	first, err := f.orders.SubmitOrder(ctx, 8, []byte(`{"2": 1}`))
	require.NoError(t, err)
	second, err := f.orders.SubmitOrder(ctx, 8, []byte(`{"3": 1}`))
	require.NoError(t, err)
	_, err = f.orders.ConfirmOrder(ctx, second.ID)
	require.NoError(t, err)

	pending, err := f.orders.PendingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.NotEmpty(t, pending[0].Items)

	history, err := f.orders.TableOrderHistory(ctx, 8, nil)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID, "newest first")

	confirmed, err := f.orders.TableOrderHistory(ctx, 8, []string{"confirmed"})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, second.ID, confirmed[0].ID)

	_, err = f.orders.TableOrderHistory(ctx, 8, []string{"paid"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestGiftOrder(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	f.presence.SetNickname(1, "Sender")
	f.presence.SetNickname(2, "Receiver")

	_, err := f.orders.SubmitGiftOrder(ctx, GiftOrderRequest{FromTableID: 1, ToTableID: 1, Menu: []byte(`{"1": 1}`)})
	assert.ErrorIs(t, err, models.ErrValidation)

	order, err := f.orders.SubmitGiftOrder(ctx, GiftOrderRequest{FromTableID: 1, ToTableID: 2, Menu: []byte(`{"1": 2}`), Message: "cheers"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), order.TableID)
	require.NotNil(t, order.GiftFromTableID)
	assert.Equal(t, int64(1), *order.GiftFromTableID)
	assert.Equal(t, int64(10000), order.Amount)

	assert.Equal(t, []models.EventType{models.EventNewOrder, models.EventGiftOrder, models.EventGiftAnnouncement}, f.notifier.types())
	gift := f.notifier.sent[1]
	assert.Equal(t, []models.Target{models.ToTable(2)}, gift.targets)
	assert.Equal(t, "Sender", gift.event.(models.GiftOrderEvent).FromNickname)
	announcement := f.notifier.sent[2]
	assert.Equal(t, []models.Target{models.AllTables()}, announcement.targets)
	assert.Equal(t, models.GiftAnnouncementEvent{FromNickname: "Sender", ToNickname: "Receiver", Amount: 10000}, announcement.event)
}

func TestInactiveSetComponentIsSkipped(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()
	require.NoError(t, f.menu.DeactivateItem(ctx, beerID))

	order, err := f.orders.SubmitOrder(ctx, 1, []byte(`{"10": 1}`))
	require.NoError(t, err)
	for _, it := range f.store.itemsOf(order.ID) {
		if it.MenuItemID != nil {
			assert.NotEqual(t, beerID, *it.MenuItemID)
		}
	}
	assert.Len(t, f.store.itemsOf(order.ID), 3)
}
