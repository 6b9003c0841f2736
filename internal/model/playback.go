package model

// StartPlaybackRequest opens a playback session for a validated coupon.
type StartPlaybackRequest struct {
	UserID string `json:"user_id" validate:"required,notblank,max=255"`
	Code   string `json:"code" validate:"required,notblank,max=64"`
}

// StartPlaybackResponse returns the new session and the ad to play.
type StartPlaybackResponse struct {
	SessionID string       `json:"session_id"`
	Ad        AdDescriptor `json:"ad"`
}

// PlaybackProgressResponse is a snapshot of one session's progress.
// OrbitCount is a display estimate; the settlement response is the only
// authoritative payout. CompletionToken is present only once the session
// is complete and is consumed by the redeem call.
type PlaybackProgressResponse struct {
	SessionID       string `json:"session_id"`
	State           string `json:"state"`
	Percent         int    `json:"percent"`
	OrbitCount      int    `json:"orbit_count"`
	Complete        bool   `json:"complete"`
	CompletionToken string `json:"completion_token,omitempty"`
}
