// Package playback implements server-side ad playback progress tracking.
// A tracker drives a deterministic 0-100 progress value on a fixed tick
// and mints a single-use completion token when playback reaches the end;
// settlement requires that token, so it can never run early.
package playback

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the tracker lifecycle state.
type State int

const (
	// StateDurationPending means the ad duration is not resolved yet; no
	// progress ticking happens in this state.
	StateDurationPending State = iota

	// StatePlaying means the tick loop is running.
	StatePlaying

	// StateComplete is terminal: playback reached the end and a completion
	// token was minted.
	StateComplete

	// StateStopped is terminal: the tracker was cancelled before completion.
	// No token is ever minted from this state.
	StateStopped
)

// String returns the API representation of the state.
func (s State) String() string {
	switch s {
	case StateDurationPending:
		return "duration_pending"
	case StatePlaying:
		return "playing"
	case StateComplete:
		return "complete"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Progress is a point-in-time snapshot of a tracker.
type Progress struct {
	State      State
	Percent    int
	OrbitCount int
	Complete   bool
	// CompletionToken is non-empty only while the tracker is complete and
	// the token has not been consumed.
	CompletionToken string
}

// progressAt computes the tick values for a given elapsed time.
// The orbit count floors the proportional payout except at completion,
// where it is forced to the exact target to correct any rounding shortfall.
func progressAt(elapsed, duration time.Duration, target int) (percent, orbits int, done bool) {
	if duration <= 0 {
		return 100, target, true
	}
	ratio := float64(elapsed) / float64(duration)
	if ratio >= 1 {
		return 100, target, true
	}
	if ratio < 0 {
		ratio = 0
	}
	percent = int(math.Round(ratio * 100))
	orbits = int(math.Floor(ratio * float64(target)))
	return percent, orbits, false
}

// Tracker owns one playback attempt's progress state. All methods are safe
// for concurrent use.
type Tracker struct {
	mu         sync.Mutex
	state      State
	target     int
	duration   time.Duration
	startedAt  time.Time
	percent    int
	orbitCount int
	token      string

	tick time.Duration
	now  func() time.Time
	quit chan struct{}
}

// NewTracker creates a tracker in StateDurationPending for the given orbit
// target. No ticking happens until Begin is called with a resolved duration.
func NewTracker(target int, tick time.Duration) *Tracker {
	return newTracker(target, tick, time.Now)
}

func newTracker(target int, tick time.Duration, now func() time.Time) *Tracker {
	return &Tracker{
		state:  StateDurationPending,
		target: target,
		tick:   tick,
		now:    now,
		quit:   make(chan struct{}),
	}
}

// Begin transitions the tracker to StatePlaying with the resolved duration
// and starts the tick loop. Calls after the first, or after Stop, are no-ops.
func (t *Tracker) Begin(duration time.Duration) {
	t.mu.Lock()
	if t.state != StateDurationPending {
		t.mu.Unlock()
		return
	}
	if duration <= 0 {
		duration = time.Millisecond // guards divide-by-zero
	}
	t.state = StatePlaying
	t.duration = duration
	t.startedAt = t.now()
	t.mu.Unlock()

	go t.run()
}

// run is the tick loop. It exits when playback completes or the tracker is
// stopped; exactly one loop ever runs per tracker.
func (t *Tracker) run() {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-t.quit:
			return
		case <-ticker.C:
			if t.onTick() {
				return
			}
		}
	}
}

// onTick advances progress once. Returns true when the tracker reached a
// terminal state and the loop should exit.
func (t *Tracker) onTick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StatePlaying {
		return true
	}

	percent, orbits, done := progressAt(t.now().Sub(t.startedAt), t.duration, t.target)
	if percent > t.percent {
		t.percent = percent
	}
	// Orbit count never decreases for the life of one tracker.
	if orbits > t.orbitCount {
		t.orbitCount = orbits
	}
	if done {
		t.percent = 100
		t.orbitCount = t.target
		t.state = StateComplete
		t.token = uuid.NewString()
		return true
	}
	return false
}

// Stop cancels the tracker from any non-terminal state. It is terminal but
// distinct from completion: no token is minted and none ever will be.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StateComplete, StateStopped:
		return
	}
	t.state = StateStopped
	close(t.quit)
}

// Snapshot returns the current progress.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Progress{
		State:           t.state,
		Percent:         t.percent,
		OrbitCount:      t.orbitCount,
		Complete:        t.state == StateComplete,
		CompletionToken: t.token,
	}
}

// ConsumeToken atomically checks and spends the completion token. It
// succeeds at most once per tracker, and only after completion.
func (t *Tracker) ConsumeToken(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateComplete || t.token == "" || token != t.token {
		return false
	}
	t.token = ""
	return true
}
