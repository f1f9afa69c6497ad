// Package sandbox is an in-memory storefront backend for local development and
// end-to-end tests of the client.
package sandbox

import (
	"net/http"

	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Options configures a Server
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.AppMetrics
	Pricing Pricing
}

// Server holds the sandbox state and its routes
type Server struct {
	Store  *Store
	Faults *Faults

	logger  *zap.Logger
	metrics *metrics.AppMetrics
	router  *mux.Router
}

// New creates a sandbox backend with an empty store
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	s := &Server{
		Store:   NewStore(opts.Pricing),
		Faults:  &Faults{},
		logger:  opts.Logger,
		metrics: opts.Metrics,
		router:  mux.NewRouter(),
	}
	s.SetupRoutes(s.router)
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetupRoutes configures the HTTP routes
func (s *Server) SetupRoutes(r *mux.Router) {
	// Middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RecoveryMiddleware(s.logger))
	r.Use(middleware.MetricsMiddleware(s.metrics, s.logger))
	r.Use(s.Faults.Middleware)

	// Health stays unauthenticated
	r.HandleFunc("/api/health", s.HealthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware)

	// Products
	api.HandleFunc("/products", s.ListProductsHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/recommendations/personalized", s.RecommendationsHandler).Methods(http.MethodGet)

	// Cart
	api.HandleFunc("/cart", s.GetCartHandler).Methods(http.MethodGet)
	api.HandleFunc("/cart", s.AddToCartHandler).Methods(http.MethodPost)
	api.HandleFunc("/cart", s.ClearCartHandler).Methods(http.MethodDelete)
	api.HandleFunc("/cart/{productId}", s.UpdateCartItemHandler).Methods(http.MethodPut)
	api.HandleFunc("/cart/{productId}", s.RemoveCartItemHandler).Methods(http.MethodDelete)

	// Orders
	api.HandleFunc("/orders", s.ListOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/reorder/{id}", s.ReorderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", s.HideOrderHandler).Methods(http.MethodDelete)

	// Reviews
	api.HandleFunc("/review", s.CreateReviewHandler).Methods(http.MethodPost)

	// Wallet
	api.HandleFunc("/wallet", s.WalletHandler).Methods(http.MethodGet)
	api.HandleFunc("/wallet/coupons", s.CouponsHandler).Methods(http.MethodGet)
	api.HandleFunc("/wallet/transactions", s.TransactionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/wallet/redeem", s.RedeemHandler).Methods(http.MethodPost)
	api.HandleFunc("/wallet/validate-coupon", s.ValidateCouponHandler).Methods(http.MethodPost)

	// Payment
	api.HandleFunc("/payment/create-intent", s.CreateIntentHandler).Methods(http.MethodPost)
	api.HandleFunc("/payment/confirm-order", s.ConfirmOrderHandler).Methods(http.MethodPost)

	// Users
	api.HandleFunc("/users/addresses", s.AddressesHandler).Methods(http.MethodGet)
}
