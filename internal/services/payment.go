package services

import (
	"context"
	"fmt"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
)

// PaymentService creates payment intents and confirms paid orders
type PaymentService struct {
	api   *apiclient.Client
	lease *apiclient.Lease
}

// NewPaymentService creates a new payment service
func NewPaymentService(api *apiclient.Client) *PaymentService {
	return &PaymentService{
		api:   api,
		lease: api.Acquire(),
	}
}

// CreateIntent asks the backend for a provider client secret and a provisional order
func (s *PaymentService) CreateIntent(ctx context.Context, req models.CreateIntentRequest) (models.CreateIntentResponse, error) {
	var resp models.CreateIntentResponse
	if err := s.api.Post(ctx, "/payment/create-intent", req, &resp); err != nil {
		return models.CreateIntentResponse{}, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return resp, nil
}

// ConfirmOrder tells the backend the provider reported success for orderID
func (s *PaymentService) ConfirmOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ErrEmptyID
	}
	req := models.ConfirmOrderRequest{OrderID: orderID}
	if err := s.api.Post(ctx, "/payment/confirm-order", req, nil, apiclient.WithIdempotencyKey("confirm-"+orderID)); err != nil {
		return fmt.Errorf("failed to confirm order: %w", err)
	}
	return nil
}

// Close releases the client lease
func (s *PaymentService) Close() {
	s.lease.Release()
}
