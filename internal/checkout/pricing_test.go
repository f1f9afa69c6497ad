package checkout

import (
	"testing"

	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(price float64, qty int) models.CartItem {
	return models.CartItem{Product: models.Product{Price: price}, Quantity: qty}
}

func TestPricing_Compute(t *testing.T) {
	tests := []struct {
		name     string
		items    []models.CartItem
		discount string
		pricing  Pricing
		subtotal string
		tax      string
		total    string
		clamped  bool
	}{
		{
			name:     "discounted order",
			items:    []models.CartItem{line(25, 2), line(50, 1)},
			discount: "15",
			pricing:  DefaultPricing(),
			subtotal: "100.00",
			tax:      "8.00",
			total:    "103.00",
		},
		{
			name:     "no discount",
			items:    []models.CartItem{line(12, 1)},
			discount: "0",
			pricing:  DefaultPricing(),
			subtotal: "12.00",
			tax:      "0.96",
			total:    "22.96",
		},
		{
			name:     "cent rounding",
			items:    []models.CartItem{line(0.1, 3)},
			discount: "0",
			pricing:  NewPricing(0, 0.08),
			subtotal: "0.30",
			tax:      "0.02",
			total:    "0.32",
		},
		{
			name:     "discount above order value clamps",
			items:    []models.CartItem{line(5, 1)},
			discount: "50",
			pricing:  DefaultPricing(),
			subtotal: "5.00",
			tax:      "0.40",
			total:    "0.00",
			clamped:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.pricing.Compute(tt.items, decimal.RequireFromString(tt.discount))
			assert.Equal(t, tt.subtotal, b.Subtotal.StringFixed(2))
			assert.Equal(t, tt.tax, b.Tax.StringFixed(2))
			assert.Equal(t, tt.total, b.Total.StringFixed(2))
			assert.Equal(t, tt.clamped, b.Clamped)
		})
	}
}

func TestBreakdown_OrderValueExcludesDiscount(t *testing.T) {
	b := DefaultPricing().Compute([]models.CartItem{line(100, 1)}, decimal.NewFromInt(15))
	assert.Equal(t, "118.00", b.OrderValue().StringFixed(2))
}

func TestBreakdown_Lines(t *testing.T) {
	b := DefaultPricing().Compute([]models.CartItem{line(100, 1)}, decimal.Zero)
	assert.Equal(t, [][2]string{
		{"Subtotal", "100.00"},
		{"Shipping", "10.00"},
		{"Tax", "8.00"},
		{"Total", "118.00"},
	}, b.Lines())

	b = DefaultPricing().Compute([]models.CartItem{line(100, 1)}, decimal.NewFromInt(15))
	assert.Contains(t, b.Lines(), [2]string{"Discount", "-15.00"})
}
