package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func kitchenItem(id int64, status CookingStatus) OrderItem {
	return OrderItem{ID: id, MenuItemID: int64Ptr(100 + id), CookingStatus: status, Category: CategoryDish}
}

func TestOrderConfirm(t *testing.T) {
	now := time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC)

	o := &Order{ID: 1, PaymentStatus: PaymentPending}
	require.NoError(t, o.Confirm(now))
	assert.Equal(t, PaymentConfirmed, o.PaymentStatus)
	require.NotNil(t, o.ConfirmedAt)
	assert.Equal(t, now, *o.ConfirmedAt)

	later := now.Add(time.Minute)
	require.NoError(t, o.Confirm(later))
	assert.Equal(t, now, *o.ConfirmedAt, "re-confirming keeps the first confirmation time")

	cancelled := &Order{ID: 2, PaymentStatus: PaymentCancelled}
	assert.ErrorIs(t, cancelled.Confirm(now), ErrInvalidState)
}

func TestOrderCancelCascadesToOpenItems(t *testing.T) {
	now := time.Now()
	reason := "customer left"
	o := &Order{ID: 7, PaymentStatus: PaymentConfirmed}
	items := []OrderItem{
		kitchenItem(1, CookingPending),
		kitchenItem(2, CookingCompleted),
		kitchenItem(3, CookingCancelled),
		{ID: 4, CookingStatus: CookingCompleted}, // raffle ticket
	}

	changed, err := o.Cancel(now, &reason, items)
	require.NoError(t, err)

	assert.Equal(t, PaymentCancelled, o.PaymentStatus)
	assert.Equal(t, &reason, o.CancelReason)
	require.Len(t, changed, 1)
	assert.Equal(t, int64(1), changed[0].ID)
	assert.Equal(t, CookingCancelled, items[0].CookingStatus)
	assert.NotNil(t, items[0].CancelledAt)
	assert.Equal(t, CookingCompleted, items[1].CookingStatus)
	assert.Nil(t, items[2].CancelledAt, "already cancelled item is left alone")
}

func TestOrderCancelRefusedWhileCooking(t *testing.T) {
	o := &Order{ID: 8, PaymentStatus: PaymentConfirmed}
	items := []OrderItem{
		kitchenItem(1, CookingPending),
		kitchenItem(2, CookingCooking),
	}

	changed, err := o.Cancel(time.Now(), nil, items)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Nil(t, changed)
	assert.Equal(t, PaymentConfirmed, o.PaymentStatus)
	assert.Equal(t, CookingPending, items[0].CookingStatus)
	assert.Equal(t, CookingCooking, items[1].CookingStatus)
}

func TestOrderCancelTwice(t *testing.T) {
	o := &Order{ID: 9, PaymentStatus: PaymentCancelled}
	_, err := o.Cancel(time.Now(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestItemStartIsIdempotent(t *testing.T) {
	first := time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC)
	item := kitchenItem(1, CookingPending)

	require.NoError(t, item.Start(first))
	require.NoError(t, item.Start(first.Add(5*time.Minute)))
	assert.Equal(t, CookingCooking, item.CookingStatus)
	assert.Equal(t, first, *item.StartedAt)
}

func TestItemTransitionTable(t *testing.T) {
	statuses := []CookingStatus{CookingPending, CookingCooking, CookingCompleted, CookingCancelled}
	allowed := map[[2]CookingStatus]bool{
		{CookingPending, CookingCooking}:   true,
		{CookingPending, CookingCancelled}: true,
		{CookingCooking, CookingCooking}:   true,
		{CookingCooking, CookingCompleted}: true,
		{CookingCooking, CookingCancelled}: true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			assert.Equal(t, allowed[[2]CookingStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalItemsStayTerminal(t *testing.T) {
	now := time.Now()

	completed := kitchenItem(1, CookingCompleted)
	assert.ErrorIs(t, completed.Cancel(now, nil), ErrInvalidState)
	assert.ErrorIs(t, completed.Start(now), ErrInvalidState)
	assert.Equal(t, CookingCompleted, completed.CookingStatus)

	cancelled := kitchenItem(2, CookingCancelled)
	assert.ErrorIs(t, cancelled.Finish(now), ErrInvalidState)
	assert.ErrorIs(t, cancelled.Cancel(now, nil), ErrInvalidState)
	assert.Equal(t, CookingCancelled, cancelled.CookingStatus)
}

func TestItemFinishRequiresCooking(t *testing.T) {
	item := kitchenItem(1, CookingPending)
	assert.ErrorIs(t, item.Finish(time.Now()), ErrInvalidState)

	require.NoError(t, item.ApplyCookingStatus(CookingCooking, time.Now(), nil))
	require.NoError(t, item.ApplyCookingStatus(CookingCompleted, time.Now(), nil))
	assert.Equal(t, CookingCompleted, item.CookingStatus)
	assert.NotNil(t, item.CompletedAt)

	assert.ErrorIs(t, item.ApplyCookingStatus(CookingPending, time.Now(), nil), ErrInvalidState)
}

func TestAutoComplete(t *testing.T) {
	now := time.Now()

	charge := OrderItem{MenuItemID: int64Ptr(1), Category: CategoryTableCharge, CookingStatus: CookingPending}
	charge.AutoComplete(now)
	assert.Equal(t, CookingCompleted, charge.CookingStatus)

	raffle := OrderItem{CookingStatus: CookingPending}
	raffle.AutoComplete(now)
	assert.Equal(t, CookingCompleted, raffle.CookingStatus)

	dish := kitchenItem(3, CookingPending)
	dish.AutoComplete(now)
	assert.Equal(t, CookingPending, dish.CookingStatus)
	assert.Nil(t, dish.CompletedAt)
}
