package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCouponCode      = errors.New("please enter a coupon code")
	ErrCouponAlreadyApplied = errors.New("a coupon is already applied, remove it first")
	ErrInvalidCoupon        = errors.New("this coupon is invalid or has expired")
	ErrCouponFailed         = errors.New("failed to apply coupon")
	ErrNoCouponValidator    = errors.New("coupon validation is not configured")

	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrNoAddressSelected  = errors.New("no shipping address selected")
	ErrUnknownAddress     = errors.New("address is not one of the saved addresses")
)

// CouponError carries the message to show for a rejected coupon
type CouponError struct {
	Message string
	Err     error
}

func (e *CouponError) Error() string {
	return e.Message
}

func (e *CouponError) Unwrap() error {
	return e.Err
}

// TransitionError is an operation attempted from a state that does not allow it
type TransitionError struct {
	From State
	Op   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from state %s", e.Op, e.From)
}
