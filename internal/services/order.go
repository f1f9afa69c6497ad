package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/query"
)

// OrderService handles order history operations
type OrderService struct {
	api     *apiclient.Client
	lease   *apiclient.Lease
	queries *query.Client
	orders  *query.Query[[]models.Order]
}

// NewOrderService creates a new order service
func NewOrderService(api *apiclient.Client, queries *query.Client) *OrderService {
	s := &OrderService{
		api:     api,
		lease:   api.Acquire(),
		queries: queries,
	}
	s.orders = query.Register(queries, query.KeyOrders, s.fetchOrders)
	return s
}

func (s *OrderService) fetchOrders(ctx context.Context) ([]models.Order, error) {
	var resp models.OrdersResponse
	if err := s.api.Get(ctx, "/orders", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return resp.Orders, nil
}

// List returns the order history
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.orders.Get(ctx)
}

// Get returns one order from the cached history
func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	orders, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
}

// Hide removes an order from the history view
func (s *OrderService) Hide(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if err := s.api.Delete(ctx, "/orders/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("failed to hide order: %w", err)
	}
	s.queries.MutationSucceeded(query.MutationHideOrder)
	return nil
}

// Reorder re-adds the items of a past order to the cart. Items the backend
// could not re-add are listed in the response.
func (s *OrderService) Reorder(ctx context.Context, id string) (models.ReorderResponse, error) {
	if id == "" {
		return models.ReorderResponse{}, ErrEmptyID
	}
	var resp models.ReorderResponse
	if err := s.api.Post(ctx, "/orders/reorder/"+url.PathEscape(id), nil, &resp); err != nil {
		return models.ReorderResponse{}, fmt.Errorf("failed to reorder: %w", err)
	}
	s.queries.MutationSucceeded(query.MutationReorder)
	return resp, nil
}

// Close releases the client lease
func (s *OrderService) Close() {
	s.lease.Release()
}
