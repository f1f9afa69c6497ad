package services

import (
	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/query"
)

// Storefront bundles every service over one shared client and query cache
type Storefront struct {
	API     *apiclient.Client
	Queries *query.Client

	Products  *ProductService
	Cart      *CartService
	Orders    *OrderService
	Wallet    *WalletService
	Reviews   *ReviewService
	Addresses *AddressService
	Payments  *PaymentService
	Health    *HealthService
}

// NewStorefront wires all services. Close releases them.
func NewStorefront(api *apiclient.Client, queries *query.Client, m *metrics.AppMetrics) *Storefront {
	return &Storefront{
		API:       api,
		Queries:   queries,
		Products:  NewProductService(api, queries),
		Cart:      NewCartService(api, queries, m),
		Orders:    NewOrderService(api, queries),
		Wallet:    NewWalletService(api, queries, m),
		Reviews:   NewReviewService(api, m),
		Addresses: NewAddressService(api, queries),
		Payments:  NewPaymentService(api),
		Health:    NewHealthService(api),
	}
}

// Close releases every service lease and stops background refetches
func (s *Storefront) Close() {
	s.Products.Close()
	s.Cart.Close()
	s.Orders.Close()
	s.Wallet.Close()
	s.Reviews.Close()
	s.Addresses.Close()
	s.Payments.Close()
	s.Queries.Close()
}
