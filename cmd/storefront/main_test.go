package main

import (
	"bufio"
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/checkout"
	"github.com/SigNoz/storefront-go-client/internal/query"
	"github.com/SigNoz/storefront-go-client/internal/sandbox"
	"github.com/SigNoz/storefront-go-client/internal/services"
	"github.com/SigNoz/storefront-go-client/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseRatings(t *testing.T) {
	got, err := parseRatings([]string{"prod-mug=5", "prod-lamp=0"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"prod-mug": 5, "prod-lamp": 0}, got)

	for _, bad := range []string{"prod-mug", "=3", "prod-mug=five"} {
		_, err := parseRatings([]string{bad})
		assert.ErrorIs(t, err, errUsage, bad)
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "pi_abc_secret_****", maskSecret("pi_abc_secret_xyz"))
	assert.Equal(t, "****", maskSecret("garbage"))
}

func TestTerminalSheet(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		auto     bool
		canceled bool
	}{
		{name: "approved", input: "y\n"},
		{name: "declined", input: "n\n", canceled: true},
		{name: "no input", input: "", canceled: true},
		{name: "auto approve", auto: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			sheet := &terminalSheet{in: bufio.NewReader(strings.NewReader(tt.input)), out: &out, autoApprove: tt.auto}
			require.NoError(t, sheet.Init(context.Background(), checkout.SheetConfig{ClientSecret: "pi_1_secret_2", MerchantName: "Nexent"}))

			err := sheet.Present(context.Background())
			if tt.canceled {
				assert.True(t, checkout.IsCanceled(err))
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out.String(), "Nexent payment (pi_1_secret_****)")
		})
	}

	sheet := &terminalSheet{}
	err := sheet.Init(context.Background(), checkout.SheetConfig{ClientSecret: "bogus"})
	assert.False(t, checkout.IsCanceled(err))
	assert.Error(t, err)
}

func newTestApp(t *testing.T, input string) (*app, *bytes.Buffer, *sandbox.Server) {
	t.Helper()
	backend := sandbox.New(sandbox.Options{Pricing: sandbox.Pricing{ShippingFee: 10, TaxRate: 0.08}})
	backend.Store.SeedCatalogue()
	require.NoError(t, backend.Store.SeedAccount("cli-shopper"))
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	api := apiclient.New(apiclient.Options{
		BaseURL: srv.URL + "/api",
		Tokens:  apiclient.StaticToken("cli-shopper"),
		Timeout: 5 * time.Second,
	})
	t.Cleanup(api.Close)
	shop := services.NewStorefront(api, query.NewClient(query.Options{}), nil)
	t.Cleanup(shop.Close)

	var out bytes.Buffer
	return &app{
		cfg:     &config.Config{MerchantName: "Nexent"},
		logger:  zap.NewNop(),
		shop:    shop,
		pricing: checkout.DefaultPricing(),
		in:      bufio.NewReader(strings.NewReader(input)),
		out:     &out,
	}, &out, backend
}

func TestDispatch_CheckoutWithCoupon(t *testing.T) {
	a, out, backend := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, []string{"add", "prod-mug", "2"}))
	require.NoError(t, a.dispatch(ctx, []string{"redeem", "silver"}))
	coupons := backend.Store.Coupons("cli-shopper")
	require.Len(t, coupons, 1)

	out.Reset()
	require.NoError(t, a.dispatch(ctx, []string{"checkout", "--coupon", coupons[0].Code, "--yes"}))
	assert.Contains(t, out.String(), "Coupon applied! You save $3.59")
	assert.Contains(t, out.String(), "Your payment was successful! Your order is being processed.")
	assert.Empty(t, backend.Store.Cart("cli-shopper").Items)
}

func TestDispatch_CheckoutDeclined(t *testing.T) {
	a, out, backend := newTestApp(t, "n\n")
	ctx := context.Background()

	require.NoError(t, a.dispatch(ctx, []string{"add", "prod-lamp"}))
	require.NoError(t, a.dispatch(ctx, []string{"checkout"}))
	assert.Contains(t, out.String(), "Payment cancelled")
	assert.Len(t, backend.Store.Cart("cli-shopper").Items, 1)
}

func TestDispatch_ReorderAndRate(t *testing.T) {
	a, out, backend := newTestApp(t, "y\n")
	ctx := context.Background()
	orders := backend.Store.Orders("cli-shopper")
	require.Len(t, orders, 1)
	order := orders[0]

	require.NoError(t, a.dispatch(ctx, []string{"reorder", order.ID}))
	assert.Contains(t, out.String(), "• Travel Backpack: Out of stock")
	assert.Contains(t, out.String(), "Ceramic Mug")

	out.Reset()
	require.NoError(t, a.dispatch(ctx, []string{"rate", order.ID, "prod-mug=5"}))
	assert.Contains(t, out.String(), "You rated 1 of 2 products")

	stored, ok := backend.Store.Order("cli-shopper", order.ID)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"prod-mug": 5}, stored.ProductRatings)
}

func TestDispatch_Usage(t *testing.T) {
	a, _, _ := newTestApp(t, "")
	ctx := context.Background()

	assert.ErrorIs(t, a.dispatch(ctx, []string{"frobnicate"}), errUsage)
	assert.ErrorIs(t, a.dispatch(ctx, []string{"qty", "prod-mug"}), errUsage)
	assert.ErrorIs(t, a.dispatch(ctx, []string{"add", "prod-mug", "many"}), errUsage)
	assert.ErrorIs(t, a.dispatch(ctx, []string{"qty", "prod-mug", "0"}), services.ErrQuantityBelowOne)
}
