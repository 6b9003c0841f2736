package service

import "errors"

var (
	// ErrCouponExists is returned when attempting to create a coupon that already exists
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponExpired is returned when a coupon is past its expiry date
	ErrCouponExpired = errors.New("coupon expired")

	// ErrAlreadyRedeemed is returned when a coupon has already been settled
	ErrAlreadyRedeemed = errors.New("coupon already redeemed")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidToken is returned when a completion token is unknown, spent,
	// or was minted for a different coupon or user
	ErrInvalidToken = errors.New("invalid completion token")

	// ErrNoActiveAd is returned when no active advertisement is available
	ErrNoActiveAd = errors.New("no active advertisement")
)
