package model

import "time"

// Coupon status values.
const (
	CouponStatusActive   = "active"
	CouponStatusRedeemed = "redeemed"
	CouponStatusExpired  = "expired"
)

// Coupon represents a single-use reward coupon tied to an orbit payout.
// Code is stored normalized: uppercase alphanumerics, no separators.
type Coupon struct {
	Code       string     `json:"code"`
	OrbitValue int        `json:"orbit_value"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt  time.Time  `json:"-"` // Not exposed in API
}

// Expired reports whether the coupon is past its expiry at the given time.
func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// CreateCouponRequest is the DTO for creating a coupon.
type CreateCouponRequest struct {
	Code       string     `json:"code" validate:"required,couponcode"`
	OrbitValue *int       `json:"orbit_value" validate:"required,gte=1"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// ValidateCouponRequest is the DTO for POST /api/coupons/validate.
type ValidateCouponRequest struct {
	Code string `json:"code" validate:"required,notblank,max=64"`
}

// ValidateCouponResponse is the verdict returned by coupon validation.
type ValidateCouponResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// RedeemCouponRequest is the DTO for POST /api/coupons/redeem.
// CompletionToken is minted by the playback tracker only when an ad has
// been watched to the end; settlement is unreachable without it.
type RedeemCouponRequest struct {
	UserID          string `json:"user_id" validate:"required,notblank,max=255"`
	Code            string `json:"code" validate:"required,notblank,max=64"`
	CompletionToken string `json:"completion_token" validate:"required,notblank"`
}

// RedeemCouponResponse reports a settlement outcome. Balance carries the
// earned orbit delta, not the new wallet total (legacy client contract).
type RedeemCouponResponse struct {
	Success bool   `json:"success"`
	Balance int    `json:"balance"`
	Message string `json:"message,omitempty"`
}
