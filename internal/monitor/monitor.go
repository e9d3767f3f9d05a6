// Package monitor polls the session provider and reduces raw sessions to a
// single activity signal for the engine.
package monitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ELSEGuy/silenceplayer/internal/config"
	"github.com/ELSEGuy/silenceplayer/internal/session"
	"github.com/ELSEGuy/silenceplayer/internal/types"
	"github.com/ELSEGuy/silenceplayer/internal/util"
)

// Sink receives the monitor's signals. ActivityChanged fires only on
// transitions, never on every poll; Degraded/Recovered frame a capture
// outage during which the last activity value stays frozen.
type Sink interface {
	ActivityChanged(active bool, apps []string)
	Degraded(err error)
	Recovered()
}

// Monitor runs the activity polling loop on its own goroutine so a slow
// playback command in the engine never stalls session polling.
type Monitor struct {
	cfg      *config.Config
	provider session.Provider
	filter   *session.Filter
	sink     Sink

	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
}

// New creates a monitor; Start begins polling.
func New(cfg *config.Config, provider session.Provider, filter *session.Filter, sink Sink) *Monitor {
	return &Monitor{
		cfg:      cfg,
		provider: provider,
		filter:   filter,
		sink:     sink,
	}
}

// Start launches the polling loop. No-op when already running.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stopChan = make(chan struct{})
	go m.run(m.stopChan)
}

// Stop halts the polling loop. No-op when not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.stopChan)
	m.running = false
}

// Running reports whether the polling loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// run polls sessions until stopped. Capture failures switch to backoff
// delays and are reported once per outage; activity transitions are
// forwarded to the sink.
func (m *Monitor) run(stopChan <-chan struct{}) {
	backoff := util.NewBackoff(types.InitialRetryDelay, types.MaxRetryDelay)

	var (
		lastActive bool
		haveSample bool
		degraded   bool
	)

	for {
		snap := m.cfg.Snapshot()
		delay := time.Duration(snap.PollIntervalMs) * time.Millisecond

		sessions, err := m.provider.ListSessions()
		if err != nil {
			if !degraded {
				degraded = true
				slog.Warn("session capture unavailable, monitor degraded", "error", err)
				m.sink.Degraded(err)
			}
			delay = backoff.Next()
		} else {
			if degraded {
				degraded = false
				backoff.Reset()
				slog.Info("session capture recovered")
				m.sink.Recovered()
			}

			active, apps := m.filter.Classify(sessions, &snap)
			if !haveSample || active != lastActive {
				haveSample = true
				lastActive = active
				m.sink.ActivityChanged(active, apps)
			}
		}

		select {
		case <-stopChan:
			return
		case <-time.After(delay):
		}
	}
}
