package sandbox

import (
	"fmt"

	"github.com/SigNoz/storefront-go-client/internal/models"
)

// Catalogue is the demo product set
var Catalogue = []models.Product{
	{ID: "prod-headphones", Name: "Wireless Headphones", Description: "Over-ear, noise cancelling", Price: 129.99, Category: "Electronics", Stock: 25, AverageRating: 4.5, TotalReviews: 12},
	{ID: "prod-keyboard", Name: "Mechanical Keyboard", Description: "Tenkeyless, brown switches", Price: 89.50, Category: "Electronics", Stock: 40, AverageRating: 4.7, TotalReviews: 30},
	{ID: "prod-mug", Name: "Ceramic Mug", Description: "350 ml, dishwasher safe", Price: 12.00, Category: "Home", Stock: 120, AverageRating: 4.1, TotalReviews: 8},
	{ID: "prod-lamp", Name: "Desk Lamp", Description: "Dimmable LED", Price: 45.00, Category: "Home", Stock: 15, AverageRating: 4.3, TotalReviews: 5},
	{ID: "prod-backpack", Name: "Travel Backpack", Description: "30 L, water resistant", Price: 74.95, Category: "Accessories", Stock: 0, AverageRating: 4.6, TotalReviews: 21},
	{ID: "prod-bottle", Name: "Insulated Bottle", Description: "750 ml stainless steel", Price: 24.00, Category: "Accessories", Stock: 60, AverageRating: 4.4, TotalReviews: 17},
}

// SeedCatalogue loads the demo products
func (s *Store) SeedCatalogue() {
	for _, p := range Catalogue {
		s.AddProduct(p)
	}
}

// SeedAccount gives an account a saved address, coins and a delivered order to
// review or reorder
func (s *Store) SeedAccount(user string) error {
	s.AddAddress(user, models.Address{
		Label:         "Home",
		FullName:      "Sam Rivera",
		StreetAddress: "221 Market Street",
		City:          "San Francisco",
		State:         "CA",
		ZipCode:       "94105",
		PhoneNumber:   "+1 415 555 0100",
	})
	s.SetCoins(user, 600)

	if _, err := s.SeedOrder(user, map[string]int{"prod-mug": 2, "prod-backpack": 1}, models.OrderDelivered); err != nil {
		return fmt.Errorf("failed to seed order: %w", err)
	}
	return nil
}
