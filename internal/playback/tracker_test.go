package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressAt_BeforeCompletion(t *testing.T) {
	percent, orbits, done := progressAt(15*time.Second, 30*time.Second, 10)

	assert.False(t, done)
	assert.Equal(t, 50, percent)
	assert.Equal(t, 5, orbits)
}

func TestProgressAt_FloorsOrbitCount(t *testing.T) {
	// 99% of 7 orbits = 6.93, floors to 6
	percent, orbits, done := progressAt(99*time.Second, 100*time.Second, 7)

	assert.False(t, done)
	assert.Equal(t, 99, percent)
	assert.Equal(t, 6, orbits)
}

func TestProgressAt_CompletionExactness(t *testing.T) {
	// At and past the duration the orbit count snaps to the exact target,
	// regardless of what flooring would produce.
	for _, elapsed := range []time.Duration{30 * time.Second, 31 * time.Second, time.Hour} {
		percent, orbits, done := progressAt(elapsed, 30*time.Second, 7)
		assert.True(t, done)
		assert.Equal(t, 100, percent)
		assert.Equal(t, 7, orbits)
	}
}

func TestProgressAt_Monotonic(t *testing.T) {
	duration := 30 * time.Second
	target := 13

	prevPercent, prevOrbits := -1, -1
	for elapsed := time.Duration(0); elapsed <= duration+time.Second; elapsed += 100 * time.Millisecond {
		percent, orbits, _ := progressAt(elapsed, duration, target)
		assert.GreaterOrEqual(t, percent, prevPercent)
		assert.GreaterOrEqual(t, orbits, prevOrbits)
		prevPercent, prevOrbits = percent, orbits
	}
	assert.Equal(t, target, prevOrbits, "final orbit count must hit the target exactly")
}

func TestProgressAt_ZeroDuration(t *testing.T) {
	percent, orbits, done := progressAt(0, 0, 5)

	assert.True(t, done)
	assert.Equal(t, 100, percent)
	assert.Equal(t, 5, orbits)
}

func TestTracker_NoTicksWhileDurationPending(t *testing.T) {
	tracker := NewTracker(10, time.Millisecond)

	time.Sleep(20 * time.Millisecond)

	snap := tracker.Snapshot()
	assert.Equal(t, StateDurationPending, snap.State)
	assert.Equal(t, 0, snap.Percent)
	assert.Equal(t, 0, snap.OrbitCount)
	assert.False(t, snap.Complete)
	assert.Empty(t, snap.CompletionToken)

	tracker.Stop()
}

func TestTracker_CompletesWithExactTarget(t *testing.T) {
	tracker := NewTracker(7, 2*time.Millisecond)
	tracker.Begin(40 * time.Millisecond)

	require.Eventually(t, func() bool {
		return tracker.Snapshot().Complete
	}, time.Second, 2*time.Millisecond, "tracker should complete")

	snap := tracker.Snapshot()
	assert.Equal(t, StateComplete, snap.State)
	assert.Equal(t, 100, snap.Percent)
	assert.Equal(t, 7, snap.OrbitCount, "completion must pay the exact target")
	assert.NotEmpty(t, snap.CompletionToken)
}

func TestTracker_OrbitCountMonotonicAcrossTicks(t *testing.T) {
	tracker := NewTracker(50, 2*time.Millisecond)
	tracker.Begin(150 * time.Millisecond)

	prev := -1
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		snap := tracker.Snapshot()
		require.GreaterOrEqual(t, snap.OrbitCount, prev, "orbit count must never decrease")
		prev = snap.OrbitCount
		if snap.Complete {
			break
		}
		time.Sleep(3 * time.Millisecond)
	}

	snap := tracker.Snapshot()
	require.True(t, snap.Complete)
	assert.Equal(t, 50, snap.OrbitCount)
}

func TestTracker_StopBeforeCompletionMintsNoToken(t *testing.T) {
	tracker := NewTracker(10, 2*time.Millisecond)
	tracker.Begin(10 * time.Second)

	time.Sleep(20 * time.Millisecond)
	tracker.Stop()

	snap := tracker.Snapshot()
	assert.Equal(t, StateStopped, snap.State)
	assert.False(t, snap.Complete)
	assert.Empty(t, snap.CompletionToken)
	assert.False(t, tracker.ConsumeToken("anything"), "stopped tracker must never settle")

	// Stopped is terminal: no further progress.
	before := snap.OrbitCount
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, tracker.Snapshot().OrbitCount)
}

func TestTracker_StopAfterCompleteKeepsToken(t *testing.T) {
	tracker := NewTracker(3, 2*time.Millisecond)
	tracker.Begin(10 * time.Millisecond)

	require.Eventually(t, func() bool {
		return tracker.Snapshot().Complete
	}, time.Second, 2*time.Millisecond)

	tracker.Stop() // closing the modal after completion must not void settlement

	snap := tracker.Snapshot()
	assert.Equal(t, StateComplete, snap.State)
	assert.NotEmpty(t, snap.CompletionToken)
}

func TestTracker_ConsumeTokenSingleUse(t *testing.T) {
	tracker := NewTracker(3, 2*time.Millisecond)
	tracker.Begin(10 * time.Millisecond)

	require.Eventually(t, func() bool {
		return tracker.Snapshot().Complete
	}, time.Second, 2*time.Millisecond)

	token := tracker.Snapshot().CompletionToken
	require.NotEmpty(t, token)

	assert.False(t, tracker.ConsumeToken("wrong-token"))
	assert.True(t, tracker.ConsumeToken(token))
	assert.False(t, tracker.ConsumeToken(token), "token must be single-use")
}

func TestTracker_BeginTwiceKeepsFirstRun(t *testing.T) {
	tracker := NewTracker(5, 2*time.Millisecond)
	tracker.Begin(20 * time.Millisecond)
	tracker.Begin(10 * time.Second) // ignored

	require.Eventually(t, func() bool {
		return tracker.Snapshot().Complete
	}, time.Second, 2*time.Millisecond, "first Begin's short duration should win")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "duration_pending", StateDurationPending.String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "complete", StateComplete.String())
	assert.Equal(t, "stopped", StateStopped.String())
}
