package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SigNoz/storefront-go-client/internal/apiclient"
	"github.com/SigNoz/storefront-go-client/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouponSession_EmptyCodeSendsNothing(t *testing.T) {
	v := &fakeValidator{}
	s := NewCouponSession(v)

	for _, code := range []string{"", "   ", "\t\n"} {
		_, err := s.Apply(context.Background(), code, decimal.NewFromInt(100))
		require.ErrorIs(t, err, ErrEmptyCouponCode)

		var ce *CouponError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "Please enter a coupon code", ce.Message)
	}
	assert.Zero(t, v.Calls())
}

func TestCouponSession_WithoutValidator(t *testing.T) {
	s := NewFlow(Deps{}).deps.Coupons

	_, err := s.Apply(context.Background(), "SAVE10", decimal.NewFromInt(100))
	require.ErrorIs(t, err, ErrNoCouponValidator)

	var ce *CouponError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Failed to apply coupon", ce.Message)
	assert.Empty(t, s.AppliedCode())
	assert.True(t, s.Discount().IsZero())
}

func TestCouponSession_ApplyAndRemove(t *testing.T) {
	v := &fakeValidator{discounts: map[string]float64{"SAVE10": 11.8}}
	s := NewCouponSession(v)

	applied, err := s.Apply(context.Background(), "  save10 ", decimal.NewFromInt(118))
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", applied.Coupon.Code)
	assert.Equal(t, "Coupon applied! You save $11.80", SavingsMessage(applied))
	assert.Equal(t, 118.0, v.lastValue)

	coupon, discount, ok := s.Applied()
	require.True(t, ok)
	assert.Equal(t, "SAVE10", coupon.Code)
	assert.Equal(t, "11.80", discount.StringFixed(2))
	assert.Equal(t, "SAVE10", s.AppliedCode())

	s.Remove()
	_, discount, ok = s.Applied()
	assert.False(t, ok)
	assert.True(t, discount.IsZero())
	assert.Empty(t, s.Code())
	assert.Empty(t, s.AppliedCode())
}

func TestCouponSession_SecondCouponRejected(t *testing.T) {
	v := &fakeValidator{discounts: map[string]float64{"A": 1, "B": 2}}
	s := NewCouponSession(v)

	_, err := s.Apply(context.Background(), "A", decimal.NewFromInt(50))
	require.NoError(t, err)

	_, err = s.Apply(context.Background(), "B", decimal.NewFromInt(50))
	require.ErrorIs(t, err, ErrCouponAlreadyApplied)
	assert.Equal(t, 1, v.Calls())
	assert.Equal(t, "A", s.AppliedCode())
}

func TestCouponSession_InvalidCode(t *testing.T) {
	s := NewCouponSession(&fakeValidator{})

	_, err := s.Apply(context.Background(), "NOPE", decimal.NewFromInt(50))
	require.ErrorIs(t, err, ErrInvalidCoupon)
	assert.Equal(t, "This coupon is invalid or has expired", err.Error())

	_, discount, ok := s.Applied()
	assert.False(t, ok)
	assert.True(t, discount.IsZero())
}

func TestCouponSession_ValidatorError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "backend message",
			err:  &apiclient.APIError{Method: "POST", Path: "/wallet/validate-coupon", Status: 400, Message: "Order value too low"},
			want: "Order value too low",
		},
		{
			name: "no message",
			err:  &apiclient.APIError{Method: "POST", Path: "/wallet/validate-coupon", Status: 500, Body: []byte("<html>")},
			want: "Failed to apply coupon",
		},
		{
			name: "transport",
			err:  errNetwork,
			want: "Failed to apply coupon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCouponSession(&fakeValidator{err: tt.err})
			_, err := s.Apply(context.Background(), "CODE", decimal.NewFromInt(10))

			var ce *CouponError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.want, ce.Message)
			assert.ErrorIs(t, err, tt.err)
			_, _, ok := s.Applied()
			assert.False(t, ok)
		})
	}
}

func TestCouponSession_AppliedPairStaysConsistent(t *testing.T) {
	discounts := map[string]float64{"A": 5, "B": 10, "C": 20}
	s := NewCouponSession(&fakeValidator{discounts: discounts})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for _, code := range []string{"A", "B", "C"} {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_, _ = s.Apply(context.Background(), code, decimal.NewFromInt(100))
				s.Remove()
			}
		}(code)
	}

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		coupon, discount, ok := s.Applied()
		if !ok {
			assert.True(t, discount.IsZero(), "discount without coupon")
			continue
		}
		assert.True(t, decimal.NewFromFloat(discounts[coupon.Code]).Equal(discount),
			"coupon %s paired with discount %s", coupon.Code, discount)
	}
	close(stop)
	wg.Wait()
}

func TestAvailableCoupons(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	coupons := []models.Coupon{
		{Code: "FRESH", ExpiresAt: now.Add(24 * time.Hour)},
		{Code: "USED", IsUsed: true, ExpiresAt: now.Add(24 * time.Hour)},
		{Code: "OLD", ExpiresAt: now.Add(-time.Minute)},
	}

	got := AvailableCoupons(coupons, now)
	require.Len(t, got, 1)
	assert.Equal(t, "FRESH", got[0].Code)

	s := NewCouponSession(&fakeValidator{})
	s.Pick(got[0])
	assert.Equal(t, "FRESH", s.Code())
}
