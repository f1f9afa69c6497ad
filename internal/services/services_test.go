package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/query"
	"github.com/SigNoz/storefront-go-client/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "shopper"

type env struct {
	backend  *sandbox.Server
	shop     *Storefront
	requests map[string]*atomic.Int32
}

func (e *env) count(method, path string) int32 {
	if n, ok := e.requests[method+" "+path]; ok {
		return n.Load()
	}
	return 0
}

func newEnv(t *testing.T) *env {
	t.Helper()
	backend := sandbox.New(sandbox.Options{Pricing: sandbox.Pricing{ShippingFee: 10, TaxRate: 0.08}})
	backend.Store.SeedCatalogue()

	e := &env{backend: backend, requests: map[string]*atomic.Int32{}}
	for _, route := range []string{
		"GET /api/cart", "PUT /api/cart/prod-mug", "GET /api/wallet", "GET /api/wallet/coupons",
		"GET /api/wallet/transactions", "POST /api/wallet/redeem", "GET /api/orders", "GET /api/products",
	} {
		e.requests[route] = &atomic.Int32{}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n, ok := e.requests[r.Method+" "+r.URL.Path]; ok {
			n.Add(1)
		}
		backend.Handler().ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	api := apiclient.New(apiclient.Options{
		BaseURL: srv.URL + "/api",
		Tokens:  apiclient.StaticToken(testToken),
		Timeout: 5 * time.Second,
	})
	t.Cleanup(api.Close)
	queries := query.NewClient(query.Options{Retry: &query.RetryPolicy{Delays: []time.Duration{time.Millisecond}}})

	e.shop = NewStorefront(api, queries, nil)
	t.Cleanup(e.shop.Close)
	return e
}

func TestStorefront_HoldsSingleInterceptor(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, 1, e.shop.API.ActiveInterceptors())
	assert.Equal(t, 7, e.shop.API.Leases())

	e.shop.Close()
	assert.Equal(t, 0, e.shop.API.ActiveInterceptors())
	assert.Equal(t, 0, e.shop.API.Leases())
}

func TestProducts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	products, err := e.shop.Products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(sandbox.Catalogue))

	p, err := e.shop.Products.Get(ctx, "prod-lamp")
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", p.Name)
	assert.Equal(t, int32(1), e.count("GET", "/api/products"), "Get reads the cached catalogue")

	_, err = e.shop.Products.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)

	recs, err := e.shop.Products.Recommendations(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
}

func TestProducts_RetriesTransientFailure(t *testing.T) {
	e := newEnv(t)
	e.backend.Faults.Transient503("/api/products", 1)

	products, err := e.shop.Products.List(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, products)
	assert.Equal(t, int32(2), e.count("GET", "/api/products"))
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.shop.Health.Check(context.Background()))

	e.backend.Faults.UnavailableHealthChecks(1)
	err := e.shop.Health.Check(context.Background())
	assert.Equal(t, http.StatusServiceUnavailable, apiclient.StatusOf(err))
}

func TestAddresses(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	addrs, err := e.shop.Addresses.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, addrs)

	saved := e.backend.Store.AddAddress(testToken, models.Address{FullName: "Sam", StreetAddress: "1 Main", City: "SF", ZipCode: "94105"})
	// addresses are only invalidated by explicit refetches
	addr, err := e.shop.Addresses.Get(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrAddressNotFound)
	assert.Nil(t, addr)

	_, err = e.shop.Addresses.addresses.Refetch(ctx)
	require.NoError(t, err)
	addr, err = e.shop.Addresses.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, addr.IsDefault)
}

func TestPayments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	addr := e.backend.Store.AddAddress(testToken, models.Address{FullName: "Sam", StreetAddress: "1 Main", City: "SF", ZipCode: "94105"})

	intent, err := e.shop.Payments.CreateIntent(ctx, models.CreateIntentRequest{
		CartItems:       []models.CartItem{{Product: models.Product{ID: "prod-bottle"}, Quantity: 1}},
		ShippingAddress: addr.Shipping(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ClientSecret)
	require.NoError(t, e.shop.Payments.ConfirmOrder(ctx, intent.OrderID))

	order, ok := e.backend.Store.Order(testToken, intent.OrderID)
	require.True(t, ok)
	assert.Equal(t, models.OrderPaid, order.Status)

	_, err = e.shop.Payments.CreateIntent(ctx, models.CreateIntentRequest{ShippingAddress: addr.Shipping()})
	assert.Equal(t, "Cart is empty", apiclient.UserMessage(err, "Failed to create payment intent"))

	assert.ErrorIs(t, e.shop.Payments.ConfirmOrder(ctx, ""), ErrEmptyID)
}
