package model

import "time"

// Ad is an advertisement a user watches to earn orbits.
type Ad struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	MediaURL   string    `json:"media_url"`
	OrbitValue int       `json:"orbit_value"`
	DurationMs int       `json:"duration_ms,omitempty"` // 0 when unknown
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"-"`
}

// CreateAdRequest is the DTO for creating an ad.
type CreateAdRequest struct {
	Title      string `json:"title" validate:"required,notblank,max=255"`
	MediaURL   string `json:"media_url" validate:"required,url"`
	OrbitValue *int   `json:"orbit_value" validate:"required,gte=1"`
	DurationMs int    `json:"duration_ms" validate:"gte=0"`
}

// AdDescriptor is the API shape served to clients entering the watch flow.
type AdDescriptor struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	MediaURL   string `json:"media_url"`
	OrbitValue int    `json:"orbit_value"`
}
