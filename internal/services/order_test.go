package services

import (
	"context"
	"testing"

	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrders_ListAndHide(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, err := e.backend.Store.SeedOrder(testToken, map[string]int{"prod-mug": 1}, models.OrderDelivered)
	require.NoError(t, err)

	orders, err := e.shop.Orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	got, err := e.shop.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, got.Status)

	require.NoError(t, e.shop.Orders.Hide(ctx, order.ID))
	orders, err = e.shop.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = e.shop.Orders.Get(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrders_Reorder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, err := e.backend.Store.SeedOrder(testToken, map[string]int{"prod-mug": 1, "prod-backpack": 1}, models.OrderDelivered)
	require.NoError(t, err)

	items, err := e.shop.Cart.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	resp, err := e.shop.Orders.Reorder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.UnavailableItem{{Name: "Travel Backpack", Reason: "Out of stock"}}, resp.UnavailableItems)

	items, err = e.shop.Cart.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1, "cart cache was invalidated by the reorder")
	assert.Equal(t, "prod-mug", items[0].Product.ID)
}

func TestReviews_Create(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, err := e.backend.Store.SeedOrder(testToken, map[string]int{"prod-mug": 1}, models.OrderDelivered)
	require.NoError(t, err)

	assert.ErrorIs(t, e.shop.Reviews.Create(ctx, "prod-mug", order.ID, 6), ErrRatingOutOfRange)
	assert.ErrorIs(t, e.shop.Reviews.Create(ctx, "prod-mug", order.ID, 0), ErrRatingOutOfRange)
	require.NoError(t, e.shop.Reviews.Create(ctx, "prod-mug", order.ID, 5))

	stored, ok := e.backend.Store.Order(testToken, order.ID)
	require.True(t, ok)
	assert.Equal(t, 5, stored.ProductRatings["prod-mug"])
}
