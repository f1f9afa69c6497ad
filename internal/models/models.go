package models

import (
	"strings"
	"time"
)

// Product represents a product in the catalog
type Product struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	Category      string   `json:"category,omitempty"`
	Stock         int      `json:"stock"`
	Images        []string `json:"images,omitempty"`
	AverageRating float64  `json:"averageRating"`
	TotalReviews  int      `json:"totalReviews"`
	Discontinued  bool     `json:"discontinued,omitempty"`
}

// Recommendation is a personalized product suggestion
type Recommendation struct {
	Product Product `json:"product"`
	Reason  string  `json:"reason"`
	Type    string  `json:"type"` // category_match, top_rated, new_arrival
}

// CartItem represents a line item in the cart
type CartItem struct {
	ID       string  `json:"_id,omitempty"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart represents the user's pending selection
type Cart struct {
	ID    string     `json:"_id,omitempty"`
	Items []CartItem `json:"items"`
}

// Address is a saved shipping address
type Address struct {
	ID            string `json:"_id"`
	Label         string `json:"label,omitempty"`
	FullName      string `json:"fullName"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zipCode"`
	PhoneNumber   string `json:"phoneNumber"`
	IsDefault     bool   `json:"isDefault,omitempty"`
}

// ShippingAddress is the address snapshot sent with a payment intent
type ShippingAddress struct {
	FullName      string `json:"fullName"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zipCode"`
	PhoneNumber   string `json:"phoneNumber"`
}

// Shipping returns the subset of the address the backend stores on the order
func (a Address) Shipping() ShippingAddress {
	return ShippingAddress{
		FullName:      a.FullName,
		StreetAddress: a.StreetAddress,
		City:          a.City,
		State:         a.State,
		ZipCode:       a.ZipCode,
		PhoneNumber:   a.PhoneNumber,
	}
}

// Coupon tiers
const (
	CouponBronze = "bronze"
	CouponSilver = "silver"
	CouponGold   = "gold"
)

// Coupon represents a discount code redeemed from the wallet
type Coupon struct {
	ID            string     `json:"_id"`
	Code          string     `json:"code"`
	Type          string     `json:"type"` // bronze, silver, gold
	Discount      float64    `json:"discount"` // percent
	CoinsRequired int        `json:"coinsRequired"`
	IsUsed        bool       `json:"isUsed"`
	UsedAt        *time.Time `json:"usedAt,omitempty"`
	OrderID       string     `json:"orderId,omitempty"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Usable reports whether the coupon can still be applied at the given time
func (c Coupon) Usable(now time.Time) bool {
	return !c.IsUsed && now.Before(c.ExpiresAt)
}

// MatchesCode compares codes case-insensitively
func (c Coupon) MatchesCode(code string) bool {
	return strings.EqualFold(c.Code, strings.TrimSpace(code))
}

// IsValidCouponType checks the tier name
func IsValidCouponType(t string) bool {
	switch t {
	case CouponBronze, CouponSilver, CouponGold:
		return true
	}
	return false
}

// WalletTransaction is one coin movement
type WalletTransaction struct {
	Type        string    `json:"type"` // earned, redeemed, expired
	Amount      int       `json:"amount"`
	Description string    `json:"description"`
	OrderID     string    `json:"orderId,omitempty"`
	CouponID    string    `json:"couponId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Wallet holds the loyalty coin balance
type Wallet struct {
	ID            string              `json:"_id"`
	Coins         int                 `json:"coins"`
	LifetimeCoins int                 `json:"lifetimeCoins"`
	Transactions  []WalletTransaction `json:"transactions"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Order status values
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// OrderItem represents an item in an order
type OrderItem struct {
	ID       string  `json:"_id,omitempty"`
	Product  Product `json:"product"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// PaymentResult is the provider-reported payment state stored on the order
type PaymentResult struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
}

// Order represents a placed order
type Order struct {
	ID              string          `json:"_id"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentResult   PaymentResult   `json:"paymentResult"`
	TotalPrice      float64         `json:"totalPrice"`
	Discount        float64         `json:"discount"`
	CouponCode      string          `json:"couponCode,omitempty"`
	CoinsEarned     int             `json:"coinsEarned"`
	Status          string          `json:"status"`
	ProductRatings  map[string]int  `json:"productRatings,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
}

// HasBeenRated reports whether any product of the order carries a rating
func (o Order) HasBeenRated() bool {
	for _, r := range o.ProductRatings {
		if r > 0 {
			return true
		}
	}
	return false
}

// UnavailableItem is a reorder line that could not be re-added
type UnavailableItem struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AddToCartRequest represents a request to add an item to the cart
type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateQuantityRequest sets the quantity of a cart line
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse wraps the cart returned by cart endpoints
type CartResponse struct {
	Message string `json:"message,omitempty"`
	Cart    Cart   `json:"cart"`
}

// OrdersResponse wraps GET /orders
type OrdersResponse struct {
	Orders []Order `json:"orders"`
}

// ReorderResponse is returned by POST /orders/reorder/{id}
type ReorderResponse struct {
	Message          string            `json:"message"`
	UnavailableItems []UnavailableItem `json:"unavailableItems"`
	Cart             *Cart             `json:"cart,omitempty"`
}

// RecommendationsResponse wraps the personalized recommendations
type RecommendationsResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// CreateReviewRequest represents POST /review
type CreateReviewRequest struct {
	ProductID string `json:"productId"`
	OrderID   string `json:"orderId"`
	Rating    int    `json:"rating"`
}

// WalletResponse wraps GET /wallet
type WalletResponse struct {
	Wallet Wallet `json:"wallet"`
}

// CouponsResponse wraps GET /wallet/coupons
type CouponsResponse struct {
	Coupons []Coupon `json:"coupons"`
}

// TransactionsResponse wraps GET /wallet/transactions
type TransactionsResponse struct {
	Transactions []WalletTransaction `json:"transactions"`
}

// RedeemRequest represents POST /wallet/redeem
type RedeemRequest struct {
	Type string `json:"type"`
}

// ExpiryInfo describes how long a redeemed coupon stays valid
type ExpiryInfo struct {
	ExpiresAt  time.Time `json:"expiresAt"`
	ExpiryDate string    `json:"expiryDate"`
	DaysValid  int       `json:"daysValid"`
	SingleUse  bool      `json:"singleUse"`
}

// RedeemResponse is returned by POST /wallet/redeem
type RedeemResponse struct {
	Message    string     `json:"message"`
	Coupon     Coupon     `json:"coupon"`
	Wallet     Wallet     `json:"wallet"`
	ExpiryInfo ExpiryInfo `json:"expiryInfo"`
}

// ValidateCouponRequest represents POST /wallet/validate-coupon
type ValidateCouponRequest struct {
	Code       string  `json:"code"`
	OrderValue float64 `json:"orderValue"`
}

// ValidateCouponResponse is the backend's verdict on a coupon code
type ValidateCouponResponse struct {
	Valid      bool    `json:"valid"`
	Coupon     *Coupon `json:"coupon,omitempty"`
	Discount   float64 `json:"discount"`
	FinalPrice float64 `json:"finalPrice"`
}

// CreateIntentRequest represents POST /payment/create-intent
type CreateIntentRequest struct {
	CartItems       []CartItem      `json:"cartItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	CouponCode      string          `json:"couponCode,omitempty"`
}

// CreateIntentResponse carries the provider client secret and provisional order
type CreateIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	OrderID      string `json:"orderId"`
}

// ConfirmOrderRequest represents POST /payment/confirm-order
type ConfirmOrderRequest struct {
	OrderID string `json:"orderId"`
}

// AddressesResponse wraps GET /users/addresses
type AddressesResponse struct {
	Addresses []Address `json:"addresses"`
}

// MessageResponse is the generic acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the backend's error envelope
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
