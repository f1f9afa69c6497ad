package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/query"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// CartService handles cart-related operations
type CartService struct {
	api     *apiclient.Client
	lease   *apiclient.Lease
	queries *query.Client
	metrics *metrics.AppMetrics
	cart    *query.Query[models.Cart]
}

// NewCartService creates a new cart service
func NewCartService(api *apiclient.Client, queries *query.Client, m *metrics.AppMetrics) *CartService {
	if m == nil {
		m = metrics.NewNoop()
	}
	s := &CartService{
		api:     api,
		lease:   api.Acquire(),
		queries: queries,
		metrics: m,
	}
	s.cart = query.Register(queries, query.KeyCart, s.fetchCart)
	return s
}

func (s *CartService) fetchCart(ctx context.Context) (models.Cart, error) {
	var resp models.CartResponse
	if err := s.api.Get(ctx, "/cart", &resp); err != nil {
		return models.Cart{}, fmt.Errorf("failed to fetch cart: %w", err)
	}
	s.recordItemsCount(ctx, resp.Cart)
	return resp.Cart, nil
}

// recordItemsCount updates the cart items gauge
func (s *CartService) recordItemsCount(ctx context.Context, cart models.Cart) {
	s.metrics.CartItemsCount.Record(ctx, int64(countItems(cart)), metric.WithAttributes(s.metrics.WithServiceName(nil)...))
}

// Get returns the cart
func (s *CartService) Get(ctx context.Context) (models.Cart, error) {
	return s.cart.Get(ctx)
}

// Items returns the cart lines
func (s *CartService) Items(ctx context.Context) ([]models.CartItem, error) {
	cart, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return cart.Items, nil
}

// Count returns the number of units in the cart
func (s *CartService) Count(ctx context.Context) (int, error) {
	cart, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	return countItems(cart), nil
}

// Subtotal returns the sum of price times quantity over the cart lines
func (s *CartService) Subtotal(ctx context.Context) (decimal.Decimal, error) {
	cart, err := s.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, item := range cart.Items {
		total = total.Add(decimal.NewFromFloat(item.Product.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total, nil
}

// Add adds quantity units of a product to the cart
func (s *CartService) Add(ctx context.Context, productID string, quantity int) (models.Cart, error) {
	if productID == "" {
		return models.Cart{}, ErrEmptyID
	}
	if quantity < 1 {
		return models.Cart{}, ErrQuantityBelowOne
	}

	var resp models.CartResponse
	req := models.AddToCartRequest{ProductID: productID, Quantity: quantity}
	if err := s.api.Post(ctx, "/cart", req, &resp); err != nil {
		return models.Cart{}, fmt.Errorf("failed to add item to cart: %w", err)
	}
	s.queries.MutationSucceeded(query.MutationAddToCart)
	return resp.Cart, nil
}

// UpdateQuantity sets the quantity of a cart line. Quantities below one are
// rejected before any request is made; removal goes through Remove.
func (s *CartService) UpdateQuantity(ctx context.Context, productID string, quantity int) (models.Cart, error) {
	if quantity < 1 {
		return models.Cart{}, ErrQuantityBelowOne
	}
	if productID == "" {
		return models.Cart{}, ErrEmptyID
	}

	var resp models.CartResponse
	req := models.UpdateQuantityRequest{Quantity: quantity}
	if err := s.api.Put(ctx, "/cart/"+url.PathEscape(productID), req, &resp); err != nil {
		return models.Cart{}, fmt.Errorf("failed to update cart item: %w", err)
	}
	s.queries.MutationSucceeded(query.MutationUpdateQuantity)
	return resp.Cart, nil
}

// Remove deletes a cart line
func (s *CartService) Remove(ctx context.Context, productID string) (models.Cart, error) {
	if productID == "" {
		return models.Cart{}, ErrEmptyID
	}

	var resp models.CartResponse
	if err := s.api.Delete(ctx, "/cart/"+url.PathEscape(productID), &resp); err != nil {
		return models.Cart{}, fmt.Errorf("failed to remove item from cart: %w", err)
	}
	s.queries.MutationSucceeded(query.MutationRemoveFromCart)
	return resp.Cart, nil
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context) error {
	if err := s.api.Delete(ctx, "/cart", nil); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.queries.MutationSucceeded(query.MutationClearCart)
	return nil
}

// Close releases the client lease
func (s *CartService) Close() {
	s.lease.Release()
}

func countItems(cart models.Cart) int {
	n := 0
	for _, item := range cart.Items {
		n += item.Quantity
	}
	return n
}
