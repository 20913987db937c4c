package cart_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoply/storefront/internal/domain/cart"
	"github.com/shoply/storefront/internal/domain/catalog"
	"github.com/shoply/storefront/internal/domain/coupon"
	"github.com/shoply/storefront/internal/storage/memory"
)

const userID = "u1"

func newTestItem(id, slug, title string, price string) catalog.Item {
	return catalog.Item{
		ID:       id,
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Slug:     slug,
		Category: "shirts",
		Label:    "new",
	}
}

func newCartService(t *testing.T) (*cart.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedItem(newTestItem("i1", "widget", "Widget", "10.00"))
	store.SeedItem(newTestItem("i2", "gadget", "Gadget", "24.50"))
	store.SeedCoupon(coupon.Coupon{ID: "c1", Code: "SAVE5", Amount: decimal.RequireFromString("5.00")})
	svc := cart.NewService(store.Items(), store.Coupons(), store.Orders(), store.Lines())
	return svc, store
}

func TestAddItem_CreatesOrderAndLine(t *testing.T) {
	svc, _ := newCartService(t)

	res, err := svc.AddItem(context.Background(), userID, "widget")
	require.NoError(t, err)

	assert.True(t, res.OrderCreated)
	assert.False(t, res.QuantityUpdated)
	require.Len(t, res.Order.Lines, 1)
	assert.Equal(t, "i1", res.Order.Lines[0].Item.ID)
	assert.Equal(t, 1, res.Order.Lines[0].Quantity)
	assert.False(t, res.Order.Ordered)
	assert.False(t, res.Order.OrderedDate.IsZero())
}

func TestAddItem_SameItemIncrementsQuantity(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	first, err := svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)

	second, err := svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)

	assert.True(t, second.QuantityUpdated)
	assert.False(t, second.OrderCreated)
	// Same order, same line: one line at quantity 2, never two lines.
	assert.Equal(t, first.Order.ID, second.Order.ID)
	require.Len(t, second.Order.Lines, 1)
	assert.Equal(t, 2, second.Order.Lines[0].Quantity)
}

func TestAddItem_SecondItemAttachesNewLine(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)

	res, err := svc.AddItem(ctx, userID, "gadget")
	require.NoError(t, err)

	assert.False(t, res.OrderCreated)
	assert.False(t, res.QuantityUpdated)
	assert.Len(t, res.Order.Lines, 2)
}

func TestAddItem_UnknownSlug(t *testing.T) {
	svc, _ := newCartService(t)

	_, err := svc.AddItem(context.Background(), userID, "no-such-item")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestAddItem_AtMostOneActiveOrder(t *testing.T) {
	svc, store := newCartService(t)
	ctx := context.Background()

	for _, slug := range []string{"widget", "gadget", "widget", "gadget", "widget"} {
		_, err := svc.AddItem(ctx, userID, slug)
		require.NoError(t, err)
	}

	order, err := store.Orders().ActiveForUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, order.Lines, 2)

	// A second unordered order for the same user must be rejected.
	err = store.Orders().Create(ctx, &cart.Order{ID: "o2", UserID: userID})
	require.Error(t, err)
}

func TestRemoveItem_RemovesWholeLine(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	// Quantity 3, then a single remove drops the line entirely.
	for i := 0; i < 3; i++ {
		_, err := svc.AddItem(ctx, userID, "widget")
		require.NoError(t, err)
	}

	order, err := svc.RemoveItem(ctx, userID, "widget")
	require.NoError(t, err)
	assert.Empty(t, order.Lines)
}

func TestRemoveItem_LineNotInOrder(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, userID, "gadget")
	require.ErrorIs(t, err, cart.ErrLineNotFound)
}

func TestRemoveItem_EmptyCart(t *testing.T) {
	svc, _ := newCartService(t)

	_, err := svc.RemoveItem(context.Background(), userID, "widget")
	require.ErrorIs(t, err, cart.ErrNoActiveOrder)
}

func TestDecrementItem_PartialThenTotal(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)

	// Quantity 2 -> 1: decrement only.
	res, err := svc.DecrementItem(ctx, userID, "widget")
	require.NoError(t, err)
	assert.False(t, res.Removed)
	require.Len(t, res.Order.Lines, 1)
	assert.Equal(t, 1, res.Order.Lines[0].Quantity)

	// Quantity 1: the line goes away.
	res, err = svc.DecrementItem(ctx, userID, "widget")
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.Empty(t, res.Order.Lines)
}

func TestDecrementItem_FailureBranches(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	_, err := svc.DecrementItem(ctx, userID, "widget")
	require.ErrorIs(t, err, cart.ErrNoActiveOrder)

	_, err = svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)

	_, err = svc.DecrementItem(ctx, userID, "gadget")
	require.ErrorIs(t, err, cart.ErrLineNotFound)
}

func TestApplyCoupon(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)

	order, err := svc.ApplyCoupon(ctx, userID, "SAVE5")
	require.NoError(t, err)
	require.NotNil(t, order.CouponID)
	assert.Equal(t, "c1", *order.CouponID)
}

func TestApplyCoupon_UnknownCode(t *testing.T) {
	svc, store := newCartService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(ctx, userID, "BADCODE")
	require.ErrorIs(t, err, coupon.ErrNotFound)

	// The order's coupon reference stays untouched.
	order, err := store.Orders().ActiveForUser(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, order.CouponID)
}

func TestApplyCoupon_EmptyCart(t *testing.T) {
	svc, _ := newCartService(t)

	_, err := svc.ApplyCoupon(context.Background(), userID, "SAVE5")
	require.ErrorIs(t, err, cart.ErrNoActiveOrder)
}

func TestApplyCoupon_OverwritesPrevious(t *testing.T) {
	svc, store := newCartService(t)
	ctx := context.Background()
	store.SeedCoupon(coupon.Coupon{ID: "c2", Code: "SAVE10", Amount: decimal.RequireFromString("10.00")})

	_, err := svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)

	_, err = svc.ApplyCoupon(ctx, userID, "SAVE5")
	require.NoError(t, err)

	order, err := svc.ApplyCoupon(ctx, userID, "SAVE10")
	require.NoError(t, err)
	require.NotNil(t, order.CouponID)
	assert.Equal(t, "c2", *order.CouponID)
}

func TestRemoveThenReAdd_KeepsDetachedLineQuantity(t *testing.T) {
	// A removed line is only detached from the order; re-adding the item
	// finds the surviving row with its old quantity.
	svc, _ := newCartService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.AddItem(ctx, userID, "widget")
		require.NoError(t, err)
	}
	_, err := svc.RemoveItem(ctx, userID, "widget")
	require.NoError(t, err)

	res, err := svc.AddItem(ctx, userID, "widget")
	require.NoError(t, err)
	require.Len(t, res.Order.Lines, 1)
	assert.Equal(t, 3, res.Order.Lines[0].Quantity)
}

func TestActiveOrder_Empty(t *testing.T) {
	svc, _ := newCartService(t)

	_, err := svc.ActiveOrder(context.Background(), userID)
	require.ErrorIs(t, err, cart.ErrNoActiveOrder)
}
