package services

import (
	"context"
	"fmt"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/metrics"
	"github.com/SigNoz/storefront-go-client/internal/models"
)

// ReviewService posts product ratings. Callers batching several reviews
// invalidate the dependent caches once for the whole batch.
type ReviewService struct {
	api     *apiclient.Client
	lease   *apiclient.Lease
	metrics *metrics.AppMetrics
}

// NewReviewService creates a new review service
func NewReviewService(api *apiclient.Client, m *metrics.AppMetrics) *ReviewService {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &ReviewService{
		api:     api,
		lease:   api.Acquire(),
		metrics: m,
	}
}

// Create rates one product of a delivered order
func (s *ReviewService) Create(ctx context.Context, productID, orderID string, rating int) error {
	if productID == "" || orderID == "" {
		return ErrEmptyID
	}
	if rating < 1 || rating > 5 {
		return ErrRatingOutOfRange
	}

	req := models.CreateReviewRequest{ProductID: productID, OrderID: orderID, Rating: rating}
	err := s.api.Post(ctx, "/review", req, nil)
	s.metrics.RecordReview(ctx, err == nil)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// Close releases the client lease
func (s *ReviewService) Close() {
	s.lease.Release()
}
