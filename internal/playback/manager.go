package playback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/puppymart/rewards-service/internal/model"
)

// Session binds one playback attempt to a user, a validated coupon and an ad.
type Session struct {
	ID         string
	UserID     string
	CouponCode string
	Ad         model.Ad
	Tracker    *Tracker
	CreatedAt  time.Time
}

// Manager owns all live playback sessions. A user has at most one session
// at a time: starting a new one cancels the previous tracker before the new
// one ticks (cancel-before-start, never two loops racing).
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byUser   map[string]string // userID -> sessionID

	resolver DurationResolver
	tick     time.Duration
	now      func() time.Time
}

// NewManager creates a session manager.
func NewManager(resolver DurationResolver, tick time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]string),
		resolver: resolver,
		tick:     tick,
		now:      time.Now,
	}
}

// Start opens a session for the given user, coupon and ad. The returned
// session is in StateDurationPending; it transitions to StatePlaying once
// the resolver reports a duration (or the fallback applies). Resolution is
// bound to the session's lifetime, not the caller's: the request that opened
// the session returns long before the resolver finishes.
func (m *Manager) Start(userID, couponCode string, ad *model.Ad) *Session {
	m.mu.Lock()

	// Cancel any previous session for this user before starting a new one.
	if prevID, ok := m.byUser[userID]; ok {
		if prev, ok := m.sessions[prevID]; ok {
			prev.Tracker.Stop()
			delete(m.sessions, prevID)
		}
		delete(m.byUser, userID)
	}

	session := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		CouponCode: couponCode,
		Ad:         *ad,
		Tracker:    NewTracker(ad.OrbitValue, m.tick),
		CreatedAt:  m.now(),
	}
	m.sessions[session.ID] = session
	m.byUser[userID] = session.ID
	m.mu.Unlock()

	go func() {
		duration := m.resolver.Resolve(context.Background(), ad)
		session.Tracker.Begin(duration)
	}()

	return session
}

// Get returns a session by ID.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	return session, ok
}

// Stop cancels a session and discards it. Returns false if the session is
// unknown. An abandoned attempt grants no orbit credit and its coupon stays
// validated for a later retry.
func (m *Manager) Stop(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return false
	}
	session.Tracker.Stop()
	m.remove(session)
	return true
}

// ConsumeToken spends a completion token for a user's coupon. On success it
// removes the session and returns its ID, so a token can settle at most one
// redemption. Fails when the token is unknown, spent, or minted for a
// different user or coupon.
func (m *Manager) ConsumeToken(userID, couponCode, token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessionID, ok := m.byUser[userID]
	if !ok {
		return "", false
	}
	session, ok := m.sessions[sessionID]
	if !ok || session.CouponCode != couponCode {
		return "", false
	}
	if !session.Tracker.ConsumeToken(token) {
		return "", false
	}
	m.remove(session)
	return session.ID, true
}

// PruneIdle drops sessions older than the TTL and stops their trackers.
// Returns how many sessions were dropped. Used by the background janitor.
func (m *Manager) PruneIdle(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-ttl)
	pruned := 0
	for _, session := range m.sessions {
		if session.CreatedAt.Before(cutoff) {
			session.Tracker.Stop()
			m.remove(session)
			pruned++
		}
	}
	if pruned > 0 {
		log.Info().Int("pruned", pruned).Msg("dropped idle playback sessions")
	}
	return pruned
}

// remove deletes a session from both indexes. Caller must hold m.mu.
func (m *Manager) remove(session *Session) {
	delete(m.sessions, session.ID)
	if m.byUser[session.UserID] == session.ID {
		delete(m.byUser, session.UserID)
	}
}
