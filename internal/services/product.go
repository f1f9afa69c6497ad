package services

import (
	"context"
	"fmt"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/query"
)

// ProductService handles catalogue reads
type ProductService struct {
	api             *apiclient.Client
	lease           *apiclient.Lease
	products        *query.Query[[]models.Product]
	recommendations *query.Query[[]models.Recommendation]
}

// NewProductService creates a new product service
func NewProductService(api *apiclient.Client, queries *query.Client) *ProductService {
	s := &ProductService{
		api:   api,
		lease: api.Acquire(),
	}
	s.products = query.Register(queries, query.KeyProducts, s.fetchProducts)
	s.recommendations = query.Register(queries, query.KeyRecommendations, s.fetchRecommendations)
	return s
}

func (s *ProductService) fetchProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.api.Get(ctx, "/products", &products); err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

func (s *ProductService) fetchRecommendations(ctx context.Context) ([]models.Recommendation, error) {
	var resp models.RecommendationsResponse
	if err := s.api.Get(ctx, "/products/recommendations/personalized", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch recommendations: %w", err)
	}
	return resp.Recommendations, nil
}

// List returns the catalogue
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.products.Get(ctx)
}

// Recommendations returns personalized suggestions for the signed-in user
func (s *ProductService) Recommendations(ctx context.Context) ([]models.Recommendation, error) {
	return s.recommendations.Get(ctx)
}

// Get returns a product from the cached catalogue
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

// Close releases the client lease
func (s *ProductService) Close() {
	s.lease.Release()
}
