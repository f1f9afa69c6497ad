package services

import "errors"

var (
	// ErrQuantityBelowOne is returned without contacting the backend
	ErrQuantityBelowOne  = errors.New("quantity must be at least 1")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrAddressNotFound   = errors.New("address not found")
	ErrInvalidCouponType = errors.New("invalid coupon type")
	ErrRatingOutOfRange  = errors.New("rating must be between 1 and 5")
	ErrEmptyID           = errors.New("id is required")
)
