// Package silence debounces the activity boolean into discrete engine events.
package silence

import (
	"sync"
	"time"
)

// State is the timer's debounce state.
type State string

const (
	// StateActive indicates foreign audio is (or was last known to be) playing.
	StateActive State = "active"
	// StateCounting indicates silence is being accumulated toward the threshold.
	StateCounting State = "counting_silence"
)

// Event is the result of a timer update.
type Event struct {
	State      State
	SilenceFor time.Duration // accumulated silence while counting, 0 otherwise

	// Edge flags for the engine. ThresholdReached fires exactly once per
	// uninterrupted silence period; Resumed fires immediately on the first
	// active update after counting began, with zero debounce.
	ThresholdReached bool
	Resumed          bool
}

// Timer tracks silence duration and generates threshold/resume events.
// It is safe for concurrent use.
type Timer struct {
	mu           sync.Mutex
	silenceStart time.Time // when the current silence period began
	counting     bool
	fired        bool // threshold already emitted for this period
}

// NewTimer creates a new silence timer in the active state.
func NewTimer() *Timer {
	return &Timer{}
}

// Update advances the timer with the current activity value and returns the
// resulting state and edge events. The caller supplies now, so tests run
// without wall-clock waits.
func (t *Timer) Update(active bool, threshold time.Duration, now time.Time) Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	if active {
		event := Event{State: StateActive, Resumed: t.counting}
		t.counting = false
		t.fired = false
		t.silenceStart = time.Time{}
		return event
	}

	if !t.counting {
		t.counting = true
		t.silenceStart = now
	}

	event := Event{State: StateCounting, SilenceFor: now.Sub(t.silenceStart)}
	if !t.fired && event.SilenceFor >= threshold {
		t.fired = true
		event.ThresholdReached = true
	}
	return event
}

// Reset clears the timer back to the active state without emitting events.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counting = false
	t.fired = false
	t.silenceStart = time.Time{}
}
