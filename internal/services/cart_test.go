package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddUpdateRemove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.shop.Cart.Add(ctx, "prod-mug", 2)
	require.NoError(t, err)
	_, err = e.shop.Cart.Add(ctx, "prod-lamp", 1)
	require.NoError(t, err)

	count, err := e.shop.Cart.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	subtotal, err := e.shop.Cart.Subtotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "69", subtotal.String())

	_, err = e.shop.Cart.UpdateQuantity(ctx, "prod-mug", 4)
	require.NoError(t, err)
	items, err := e.shop.Cart.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 4, items[0].Quantity)

	_, err = e.shop.Cart.Remove(ctx, "prod-lamp")
	require.NoError(t, err)
	items, err = e.shop.Cart.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, e.shop.Cart.Clear(ctx))
	items, err = e.shop.Cart.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCart_QuantityFloor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.shop.Cart.Add(ctx, "prod-mug", 1)
	require.NoError(t, err)
	before, err := e.shop.Cart.Get(ctx)
	require.NoError(t, err)

	for _, q := range []int{0, -1, -100} {
		_, err := e.shop.Cart.UpdateQuantity(ctx, "prod-mug", q)
		assert.ErrorIs(t, err, ErrQuantityBelowOne)
	}
	assert.Zero(t, e.count("PUT", "/api/cart/prod-mug"), "no request for a quantity below one")

	after, err := e.shop.Cart.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, e.backend.Store.Cart(testToken).Items[0].Quantity)

	_, err = e.shop.Cart.Add(ctx, "prod-mug", 0)
	assert.ErrorIs(t, err, ErrQuantityBelowOne)
}

func TestCart_MutationRefreshesCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	items, err := e.shop.Cart.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = e.shop.Cart.Add(ctx, "prod-bottle", 1)
	require.NoError(t, err)
	e.shop.Queries.Wait()

	state := e.shop.Cart.cart.State()
	assert.False(t, state.IsStale)
	require.Len(t, state.Data.Items, 1)
	assert.Equal(t, "prod-bottle", state.Data.Items[0].Product.ID)
}

func TestCart_BackendRejectionMessage(t *testing.T) {
	e := newEnv(t)
	_, err := e.shop.Cart.Add(context.Background(), "prod-backpack", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient stock")
}
