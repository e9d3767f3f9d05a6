// Package fade runs time-bounded volume ramps, cancellable mid-ramp.
package fade

import (
	"sync"
	"time"

	"github.com/ELSEGuy/silenceplayer/internal/types"
)

// Job is a single volume ramp. At most one job is active at a time;
// starting a new one cancels and discards any in-flight job.
type Job struct {
	Direction   types.FadeDirection
	StartVolume float64
	TargetVol   float64
	Duration    time.Duration
}

// Event is the result of advancing the scheduler.
type Event struct {
	Active    bool                // a job is (still) running
	Volume    float64             // current ramp volume
	Completed bool                // edge: fired exactly once when the ramp finishes
	Direction types.FadeDirection // direction of the job the event refers to
}

// Scheduler owns and advances the active fade job. The ramp is linear:
// perceptually adequate for ambient material and trivially predictable in
// tests. Callers supply now, so ramps are testable without wall-clock waits.
// It is safe for concurrent use.
type Scheduler struct {
	mu        sync.Mutex
	job       *Job
	startedAt time.Time
}

// NewScheduler creates a scheduler with no active job.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Start cancels any running job and begins a new ramp from from to to over
// duration. A non-positive duration completes on the next tick.
func (s *Scheduler) Start(direction types.FadeDirection, from, to float64, duration time.Duration, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = &Job{
		Direction:   direction,
		StartVolume: from,
		TargetVol:   to,
		Duration:    duration,
	}
	s.startedAt = now
}

// Tick advances the active job and returns the current volume. When the
// ramp reaches its duration the event carries Completed exactly once and
// the job is discarded.
func (s *Scheduler) Tick(now time.Time) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return Event{}
	}

	job := s.job
	elapsed := now.Sub(s.startedAt)
	if elapsed >= job.Duration {
		s.job = nil
		return Event{
			Active:    false,
			Volume:    job.TargetVol,
			Completed: true,
			Direction: job.Direction,
		}
	}

	progress := float64(elapsed) / float64(job.Duration)
	return Event{
		Active:    true,
		Volume:    job.StartVolume + (job.TargetVol-job.StartVolume)*progress,
		Direction: job.Direction,
	}
}

// Cancel discards the active job without emitting completion. Safe to call
// mid-ramp or with no job; no residual state remains.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = nil
}

// Active reports whether a job is currently running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}

// Direction returns the active job's direction, or false when idle.
func (s *Scheduler) Direction() (types.FadeDirection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return "", false
	}
	return s.job.Direction, true
}
