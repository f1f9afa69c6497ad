package services

import (
	"context"
	"fmt"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/SigNoz/storefront-go-client/internal/query"
)

// AddressService reads the user's saved shipping addresses
type AddressService struct {
	api       *apiclient.Client
	lease     *apiclient.Lease
	addresses *query.Query[[]models.Address]
}

// NewAddressService creates a new address service
func NewAddressService(api *apiclient.Client, queries *query.Client) *AddressService {
	s := &AddressService{
		api:   api,
		lease: api.Acquire(),
	}
	s.addresses = query.Register(queries, query.KeyAddresses, s.fetchAddresses)
	return s
}

func (s *AddressService) fetchAddresses(ctx context.Context) ([]models.Address, error) {
	var resp models.AddressesResponse
	if err := s.api.Get(ctx, "/users/addresses", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch addresses: %w", err)
	}
	return resp.Addresses, nil
}

// List returns the saved addresses
func (s *AddressService) List(ctx context.Context) ([]models.Address, error) {
	return s.addresses.Get(ctx)
}

// Get returns one saved address
func (s *AddressService) Get(ctx context.Context, id string) (*models.Address, error) {
	addresses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range addresses {
		if addresses[i].ID == id {
			return &addresses[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAddressNotFound, id)
}

// Close releases the client lease
func (s *AddressService) Close() {
	s.lease.Release()
}
