package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeem_InvalidatesWalletCouponsTransactions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.backend.Store.SetCoins(testToken, 300)

	wallet, err := e.shop.Wallet.Wallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, wallet.Coins)
	coupons, err := e.shop.Wallet.Coupons(ctx)
	require.NoError(t, err)
	assert.Empty(t, coupons)
	txs, err := e.shop.Wallet.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, txs)

	resp, err := e.shop.Wallet.Redeem(ctx, "Bronze")
	require.NoError(t, err)
	assert.Equal(t, models.CouponBronze, resp.Coupon.Type)

	// reads right after the mutation never return the old balance
	wallet, err = e.shop.Wallet.Wallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, wallet.Coins)
	coupons, err = e.shop.Wallet.Coupons(ctx)
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, resp.Coupon.Code, coupons[0].Code)
	txs, err = e.shop.Wallet.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, -100, txs[0].Amount)

	e.shop.Queries.Wait()
	assert.Equal(t, 200, e.shop.Wallet.wallet.State().Data.Coins)
	assert.Equal(t, int32(2), e.count("GET", "/api/wallet"))
	assert.Equal(t, int32(0), e.count("GET", "/api/orders"), "orders are not refetched by a redemption")
}

func TestRedeem_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.shop.Wallet.Redeem(ctx, "platinum")
	assert.ErrorIs(t, err, ErrInvalidCouponType)
	assert.Zero(t, e.count("POST", "/api/wallet/redeem"))

	_, err = e.shop.Wallet.Redeem(ctx, "gold")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apiclient.StatusOf(err))
	assert.Contains(t, apiclient.UserMessage(err, "Failed to redeem coupon"), "Insufficient coins")
}

func TestAvailableCoupons(t *testing.T) {
	e := newEnv(t)
	now := time.Now()
	e.backend.Store.AddCoupon(testToken, models.Coupon{Code: "LIVE", Discount: 5, ExpiresAt: now.Add(time.Hour)})
	e.backend.Store.AddCoupon(testToken, models.Coupon{Code: "OLD", Discount: 5, ExpiresAt: now.Add(-time.Hour)})
	e.backend.Store.AddCoupon(testToken, models.Coupon{Code: "SPENT", Discount: 5, IsUsed: true, ExpiresAt: now.Add(time.Hour)})

	coupons, err := e.shop.Wallet.AvailableCoupons(context.Background())
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, "LIVE", coupons[0].Code)
}

func TestValidateCoupon_TrimsCode(t *testing.T) {
	e := newEnv(t)
	e.backend.Store.AddCoupon(testToken, models.Coupon{Code: "SILVER-1", Discount: 10, ExpiresAt: time.Now().Add(time.Hour)})

	verdict, err := e.shop.Wallet.ValidateCoupon(context.Background(), "  silver-1 ", 118)
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.InDelta(t, 11.8, verdict.Discount, 0.001)
}
