package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/query"
)

// WalletService handles coins, coupons and their redemption
type WalletService struct {
	api          *apiclient.Client
	lease        *apiclient.Lease
	queries      *query.Client
	metrics      *metrics.AppMetrics
	wallet       *query.Query[models.Wallet]
	coupons      *query.Query[[]models.Coupon]
	transactions *query.Query[[]models.WalletTransaction]
}

// NewWalletService creates a new wallet service
func NewWalletService(api *apiclient.Client, queries *query.Client, m *metrics.AppMetrics) *WalletService {
	if m == nil {
		m = metrics.NewNoop()
	}
	s := &WalletService{
		api:     api,
		lease:   api.Acquire(),
		queries: queries,
		metrics: m,
	}
	s.wallet = query.Register(queries, query.KeyWallet, s.fetchWallet)
	s.coupons = query.Register(queries, query.KeyCoupons, s.fetchCoupons)
	s.transactions = query.Register(queries, query.KeyWalletTransactions, s.fetchTransactions)
	return s
}

func (s *WalletService) fetchWallet(ctx context.Context) (models.Wallet, error) {
	var resp models.WalletResponse
	if err := s.api.Get(ctx, "/wallet", &resp); err != nil {
		return models.Wallet{}, fmt.Errorf("failed to fetch wallet: %w", err)
	}
	return resp.Wallet, nil
}

func (s *WalletService) fetchCoupons(ctx context.Context) ([]models.Coupon, error) {
	var resp models.CouponsResponse
	if err := s.api.Get(ctx, "/wallet/coupons", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch coupons: %w", err)
	}
	return resp.Coupons, nil
}

func (s *WalletService) fetchTransactions(ctx context.Context) ([]models.WalletTransaction, error) {
	var resp models.TransactionsResponse
	if err := s.api.Get(ctx, "/wallet/transactions", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch wallet transactions: %w", err)
	}
	return resp.Transactions, nil
}

// Wallet returns the coin balance
func (s *WalletService) Wallet(ctx context.Context) (models.Wallet, error) {
	return s.wallet.Get(ctx)
}

// Coupons returns every coupon the user holds, used or not
func (s *WalletService) Coupons(ctx context.Context) ([]models.Coupon, error) {
	return s.coupons.Get(ctx)
}

// AvailableCoupons returns coupons that are unused and unexpired
func (s *WalletService) AvailableCoupons(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.Coupons(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var usable []models.Coupon
	for _, c := range coupons {
		if c.Usable(now) {
			usable = append(usable, c)
		}
	}
	return usable, nil
}

// Transactions returns the coin history
func (s *WalletService) Transactions(ctx context.Context) ([]models.WalletTransaction, error) {
	return s.transactions.Get(ctx)
}

// Redeem exchanges coins for a coupon of the given tier
func (s *WalletService) Redeem(ctx context.Context, tier string) (models.RedeemResponse, error) {
	tier = strings.ToLower(strings.TrimSpace(tier))
	if !models.IsValidCouponType(tier) {
		return models.RedeemResponse{}, fmt.Errorf("%w: %q", ErrInvalidCouponType, tier)
	}

	var resp models.RedeemResponse
	if err := s.api.Post(ctx, "/wallet/redeem", models.RedeemRequest{Type: tier}, &resp); err != nil {
		return models.RedeemResponse{}, fmt.Errorf("failed to redeem coupon: %w", err)
	}
	s.metrics.RecordRedemption(ctx, tier)
	s.queries.MutationSucceeded(query.MutationRedeemCoupon)
	return resp, nil
}

// ValidateCoupon asks the backend whether code applies to an order of orderValue
func (s *WalletService) ValidateCoupon(ctx context.Context, code string, orderValue float64) (models.ValidateCouponResponse, error) {
	req := models.ValidateCouponRequest{Code: strings.TrimSpace(code), OrderValue: orderValue}
	var resp models.ValidateCouponResponse
	if err := s.api.Post(ctx, "/wallet/validate-coupon", req, &resp); err != nil {
		return models.ValidateCouponResponse{}, fmt.Errorf("failed to validate coupon: %w", err)
	}
	return resp, nil
}

// Close releases the client lease
func (s *WalletService) Close() {
	s.lease.Release()
}
