// Package notify delivers playback and monitor events to an optional
// webhook endpoint. Deliveries run on their own goroutines so a slow
// endpoint never blocks the engine loop.
package notify

import (
	"sync"

	"github.com/ELSEGuy/silenceplayer/internal/config"
	"github.com/ELSEGuy/silenceplayer/internal/util"
)

// Notifier sends webhook notifications for engine transitions. Start and
// stop notifications are paired: a stop is only sent when the matching
// start went out, and each playback period produces at most one of each.
type Notifier struct {
	cfg *config.Config

	mu sync.Mutex

	// Track which notifications have been sent for the current period
	startedSent  bool
	degradedSent bool
}

// New returns a Notifier using the given config.
func New(cfg *config.Config) *Notifier {
	return &Notifier{cfg: cfg}
}

// AmbientStarted reports that ambient playback began.
func (n *Notifier) AmbientStarted(track string, silenceForMs int64) {
	cfg := n.cfg.Snapshot()

	n.mu.Lock()
	shouldSend := !n.startedSent && cfg.HasWebhook()
	if shouldSend {
		n.startedSent = true
	}
	n.mu.Unlock()

	if shouldSend {
		go util.LogNotifyResult(
			func() error { return SendAmbientStartedWebhook(cfg.WebhookURL, track, silenceForMs) },
			"Ambient started webhook",
		)
	}
}

// AmbientStopped reports that ambient playback ended. Sent only when the
// matching start notification went out.
func (n *Notifier) AmbientStopped(track string, playedMs int64, apps []string) {
	cfg := n.cfg.Snapshot()

	n.mu.Lock()
	shouldSend := n.startedSent
	n.startedSent = false
	n.mu.Unlock()

	if shouldSend {
		go util.LogNotifyResult(
			func() error { return SendAmbientStoppedWebhook(cfg.WebhookURL, track, playedMs, apps) },
			"Ambient stopped webhook",
		)
	}
}

// MonitorDegraded reports that session capture failed. Sent once per outage.
func (n *Notifier) MonitorDegraded(captureErr error) {
	cfg := n.cfg.Snapshot()

	n.mu.Lock()
	shouldSend := !n.degradedSent && cfg.HasWebhook()
	if shouldSend {
		n.degradedSent = true
	}
	n.mu.Unlock()

	if shouldSend {
		go util.LogNotifyResult(
			func() error { return SendDegradedWebhook(cfg.WebhookURL, captureErr) },
			"Monitor degraded webhook",
		)
	}
}

// MonitorRecovered reports that session capture is working again. Sent only
// when the matching degraded notification went out.
func (n *Notifier) MonitorRecovered() {
	cfg := n.cfg.Snapshot()

	n.mu.Lock()
	shouldSend := n.degradedSent
	n.degradedSent = false
	n.mu.Unlock()

	if shouldSend {
		go util.LogNotifyResult(
			func() error { return SendRecoveredWebhook(cfg.WebhookURL) },
			"Monitor recovered webhook",
		)
	}
}

// Reset clears the notification state.
func (n *Notifier) Reset() {
	n.mu.Lock()
	n.startedSent = false
	n.degradedSent = false
	n.mu.Unlock()
}
