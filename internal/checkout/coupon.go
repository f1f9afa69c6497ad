package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/shopspring/decimal"
)

const (
	invalidCouponMessage = "This coupon is invalid or has expired"
	couponFailedMessage  = "Failed to apply coupon"
	emptyCouponMessage   = "Please enter a coupon code"
	alreadyAppliedNotice = "Remove the applied coupon before applying another one"
)

// CouponValidator checks a code against the backend
type CouponValidator interface {
	ValidateCoupon(ctx context.Context, code string, orderValue float64) (models.ValidateCouponResponse, error)
}

// AppliedCoupon is a validated coupon and the discount it grants
type AppliedCoupon struct {
	Coupon   models.Coupon
	Discount decimal.Decimal
}

// CouponSession holds the coupon applied during one checkout session. The
// applied coupon and its discount are swapped as a single value.
type CouponSession struct {
	validator CouponValidator

	applyMu sync.Mutex // serializes Apply

	mu      sync.Mutex
	applied *AppliedCoupon
	code    string
}

// NewCouponSession creates an empty session
func NewCouponSession(validator CouponValidator) *CouponSession {
	return &CouponSession{validator: validator}
}

// SetCode records typed but unsubmitted code text
func (s *CouponSession) SetCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

// Code returns the typed code text
func (s *CouponSession) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Applied returns the applied coupon and its discount
func (s *CouponSession) Applied() (models.Coupon, decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied == nil {
		return models.Coupon{}, decimal.Zero, false
	}
	return s.applied.Coupon, s.applied.Discount, true
}

// Discount returns the applied discount, or zero
func (s *CouponSession) Discount() decimal.Decimal {
	_, d, _ := s.Applied()
	return d
}

// AppliedCode returns the code of the applied coupon, or ""
func (s *CouponSession) AppliedCode() string {
	c, _, ok := s.Applied()
	if !ok {
		return ""
	}
	return c.Code
}

// Apply validates code against orderValue and stores the result. Whitespace-only
// codes are rejected without a request, as is a second coupon while one is applied.
func (s *CouponSession) Apply(ctx context.Context, code string, orderValue decimal.Decimal) (AppliedCoupon, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.SetCode(code)
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return AppliedCoupon{}, &CouponError{Message: emptyCouponMessage, Err: ErrEmptyCouponCode}
	}
	if _, _, ok := s.Applied(); ok {
		return AppliedCoupon{}, &CouponError{Message: alreadyAppliedNotice, Err: ErrCouponAlreadyApplied}
	}
	if s.validator == nil {
		return AppliedCoupon{}, &CouponError{Message: couponFailedMessage, Err: ErrNoCouponValidator}
	}

	resp, err := s.validator.ValidateCoupon(ctx, trimmed, orderValue.InexactFloat64())
	if err != nil {
		return AppliedCoupon{}, &CouponError{Message: apiclient.UserMessage(err, couponFailedMessage), Err: err}
	}
	if !resp.Valid || resp.Coupon == nil {
		return AppliedCoupon{}, &CouponError{Message: invalidCouponMessage, Err: ErrInvalidCoupon}
	}

	applied := &AppliedCoupon{Coupon: *resp.Coupon, Discount: decimal.NewFromFloat(resp.Discount)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied != nil {
		return AppliedCoupon{}, &CouponError{Message: alreadyAppliedNotice, Err: ErrCouponAlreadyApplied}
	}
	s.applied = applied
	return *applied, nil
}

// Remove clears the applied coupon, its discount and the typed code in one step
func (s *CouponSession) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = nil
	s.code = ""
}

// AvailableCoupons filters coupons that can still be applied at now
func AvailableCoupons(coupons []models.Coupon, now time.Time) []models.Coupon {
	var usable []models.Coupon
	for _, c := range coupons {
		if c.Usable(now) {
			usable = append(usable, c)
		}
	}
	return usable
}

// Pick copies a listed coupon's code into the code field
func (s *CouponSession) Pick(c models.Coupon) {
	s.SetCode(c.Code)
}

// SavingsMessage is the confirmation shown after a coupon applies
func SavingsMessage(a AppliedCoupon) string {
	return "Coupon applied! You save $" + a.Discount.StringFixed(2)
}
