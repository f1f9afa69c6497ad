// Package checkout prices the cart, reconciles the applied coupon and drives
// the payment flow.
package checkout

import (
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/shopspring/decimal"
)

// Pricing holds the storefront's fixed order charges
type Pricing struct {
	ShippingFee decimal.Decimal
	TaxRate     decimal.Decimal
}

// DefaultPricing is a 10.00 shipping fee and 8% tax
func DefaultPricing() Pricing {
	return NewPricing(10, 0.08)
}

// NewPricing builds Pricing from configuration values
func NewPricing(shippingFee, taxRate float64) Pricing {
	return Pricing{
		ShippingFee: decimal.NewFromFloat(shippingFee),
		TaxRate:     decimal.NewFromFloat(taxRate),
	}
}

// Breakdown is the price of a cart
type Breakdown struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	// Clamped is set when the discount exceeded the order value and Total was floored at zero
	Clamped bool
}

// Subtotal sums price times quantity over the lines
func Subtotal(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Product.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// Compute prices items with the given coupon discount
func (p Pricing) Compute(items []models.CartItem, discount decimal.Decimal) Breakdown {
	return p.ComputeSubtotal(Subtotal(items), discount)
}

// ComputeSubtotal prices an already summed subtotal
func (p Pricing) ComputeSubtotal(subtotal, discount decimal.Decimal) Breakdown {
	b := Breakdown{
		Subtotal: subtotal,
		Shipping: p.ShippingFee,
		Tax:      subtotal.Mul(p.TaxRate),
		Discount: discount,
	}
	b.Total = b.OrderValue().Sub(discount)
	if b.Total.IsNegative() {
		b.Total = decimal.Zero
		b.Clamped = true
	}
	return b
}

// OrderValue is the pre-discount total a coupon is validated against
func (b Breakdown) OrderValue() decimal.Decimal {
	return b.Subtotal.Add(b.Shipping).Add(b.Tax)
}

// Lines renders the breakdown rounded to cents
func (b Breakdown) Lines() [][2]string {
	lines := [][2]string{
		{"Subtotal", b.Subtotal.StringFixed(2)},
		{"Shipping", b.Shipping.StringFixed(2)},
		{"Tax", b.Tax.StringFixed(2)},
	}
	if b.Discount.IsPositive() {
		lines = append(lines, [2]string{"Discount", "-" + b.Discount.StringFixed(2)})
	}
	return append(lines, [2]string{"Total", b.Total.StringFixed(2)})
}
