package engine

import (
	"fmt"
	"log/slog"

	"github.com/ELSEGuy/silenceplayer/internal/events"
	"github.com/ELSEGuy/silenceplayer/internal/types"
	"github.com/ELSEGuy/silenceplayer/internal/util"
)

// publishStatus copies the loop state into the shared status snapshot.
// Run-loop only.
func (c *Controller) publishStatus() {
	status := types.EngineStatus{
		State:        c.state,
		CurrentTrack: c.currentTrack,
		Volume:       c.volume,
		Monitoring:   c.monitoring,
		Degraded:     c.degraded,
		SilenceForMs: c.silenceFor.Milliseconds(),
		ActiveApps:   c.lastApps,
		LastError:    c.lastError,
	}
	if !c.startedAt.IsZero() {
		status.StartedAt = c.startedAt.UnixMilli()
	}
	status.StatusLine = c.statusLine()

	c.statusMu.Lock()
	c.status = status
	c.statusMu.Unlock()
}

// statusLine renders the one-line state used by tray and web clients.
func (c *Controller) statusLine() string {
	var line string
	switch {
	case !c.monitoring:
		line = "Paused"
	case c.state == types.StateFadingIn:
		line = "Fading in: " + c.currentTrack.Name()
	case c.state == types.StatePlaying:
		line = "Playing: " + c.currentTrack.Name()
	case c.state == types.StateDucked:
		line = "Ducked: " + c.currentTrack.Name()
	case c.state == types.StateFadingOut:
		line = "Fading out: " + c.currentTrack.Name()
	case c.state == types.StateStoppedEnd:
		line = "Stopped"
	case c.silenceFor > 0:
		snap := c.cfg.Snapshot()
		line = fmt.Sprintf("Monitoring (silence %s/%s)",
			util.FormatDuration(c.silenceFor.Milliseconds()),
			util.FormatDuration(int64(snap.SilenceSeconds*1000)))
	default:
		line = "Monitoring"
	}

	if c.degraded {
		line += " [capture degraded]"
	}
	return line
}

// logEvent appends an entry to the configured event log, reopening the
// logger when the configured path changes. Run-loop only.
func (c *Controller) logEvent(entry *events.Entry) {
	snap := c.cfg.Snapshot()

	if snap.EventLogPath != c.eventLogPath {
		if c.eventLog != nil {
			_ = c.eventLog.Close() //nolint:errcheck // Replacing the logger either way
			c.eventLog = nil
		}
		c.eventLogPath = snap.EventLogPath
		if snap.HasEventLog() {
			logger, err := events.NewLogger(snap.EventLogPath)
			if err != nil {
				slog.Error("open event log failed", "path", snap.EventLogPath, "error", err)
				return
			}
			c.eventLog = logger
		}
	}

	if c.eventLog == nil {
		return
	}
	if err := c.eventLog.Log(entry); err != nil {
		slog.Error("write event log failed", "error", err)
	}
}
