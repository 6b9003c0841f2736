package model

import "time"

// Wallet holds a user's orbit balance. Balance never goes negative and is
// only ever mutated additively, so concurrent credits cannot clobber each
// other.
type Wallet struct {
	UserID    string    `json:"user_id"`
	Balance   int       `json:"balance"`
	UpdatedAt time.Time `json:"-"`
}

// Redemption records one settled coupon. The unique constraint on
// CouponCode is what makes double settlement a detectable conflict rather
// than a silent double credit.
type Redemption struct {
	ID           string    `json:"id"`
	CouponCode   string    `json:"coupon_code"`
	UserID       string    `json:"user_id"`
	SessionID    string    `json:"session_id"`
	EarnedOrbits int       `json:"earned_orbits"`
	CreatedAt    time.Time `json:"created_at"`
}
