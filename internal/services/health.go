package services

import (
	"context"
	"fmt"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
)

// HealthService probes backend readiness
type HealthService struct {
	api *apiclient.Client
}

// NewHealthService creates a new health service
func NewHealthService(api *apiclient.Client) *HealthService {
	return &HealthService{api: api}
}

// Check issues GET /health once
func (s *HealthService) Check(ctx context.Context) error {
	if err := s.api.Health(ctx); err != nil {
		return fmt.Errorf("backend health check failed: %w", err)
	}
	return nil
}
