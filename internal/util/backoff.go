// Package util provides small shared helpers: backoff, error wrapping,
// path validation and time formatting.
package util

import (
	"sync"
	"time"
)

// Backoff is an exponential backoff calculator used for capture retries.
// It is safe for concurrent use.
type Backoff struct {
	mu       sync.Mutex
	current  time.Duration
	initial  time.Duration
	maxDelay time.Duration
}

// NewBackoff returns a Backoff that doubles from initial up to maxDelay.
func NewBackoff(initial, maxDelay time.Duration) *Backoff {
	return &Backoff{
		current:  initial,
		initial:  initial,
		maxDelay: maxDelay,
	}
}

// Next returns the current delay and advances to the next value.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.current
	b.current = min(b.current*2, b.maxDelay)
	return d
}

// Reset sets the backoff back to the initial delay.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
}
