// Package engine drives ambient playback from the activity signal: it owns
// the silence timer, the fade scheduler and the playlist cursor, and issues
// playback commands in response to activity transitions.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ELSEGuy/silenceplayer/internal/config"
	"github.com/ELSEGuy/silenceplayer/internal/events"
	"github.com/ELSEGuy/silenceplayer/internal/fade"
	"github.com/ELSEGuy/silenceplayer/internal/monitor"
	"github.com/ELSEGuy/silenceplayer/internal/notify"
	"github.com/ELSEGuy/silenceplayer/internal/player"
	"github.com/ELSEGuy/silenceplayer/internal/playlist"
	"github.com/ELSEGuy/silenceplayer/internal/silence"
	"github.com/ELSEGuy/silenceplayer/internal/types"
)

// queueSize bounds the engine's inbox. Activity transitions are rare; the
// buffer only needs to absorb a burst while a playback command runs.
const queueSize = 64

// Controller is the playback state machine. All mutation happens on the
// run-loop goroutine; the inbox serializes external signals, so handlers
// never race each other.
type Controller struct {
	cfg      *config.Config
	player   player.Engine
	playlist *playlist.Manager
	fades    *fade.Scheduler
	timer    *silence.Timer
	notifier *notify.Notifier
	monitor  *monitor.Monitor

	queue    chan event
	stopChan chan struct{}
	done     chan struct{}

	// Run-loop state. Owned by the loop goroutine, never accessed elsewhere.
	state            types.EngineState
	lastActive       bool
	lastApps         []string
	degraded         bool
	monitoring       bool
	currentTrack     types.Track
	volume           float64
	startedAt        time.Time
	silenceFor       time.Duration
	thresholdPending bool
	lastError        string

	eventLog     *events.Logger
	eventLogPath string

	statusMu sync.RWMutex
	status   types.EngineStatus
}

// Inbox events. One type per signal keeps the loop's switch readable.
type event interface{}

type activityEvent struct {
	active bool
	apps   []string
}

type degradedEvent struct{ err error }

type recoveredEvent struct{}

type monitoringEvent struct{ enabled bool }

type stopAmbientEvent struct{}

type reloadEvent struct{ reply chan error }

// New creates a controller. AttachMonitor must be called before Start so the
// monitoring toggle can reach the polling loop.
func New(cfg *config.Config, p player.Engine, pl *playlist.Manager, n *notify.Notifier) *Controller {
	return &Controller{
		cfg:      cfg,
		player:   p,
		playlist: pl,
		fades:    fade.NewScheduler(),
		timer:    silence.NewTimer(),
		notifier: n,
		queue:    make(chan event, queueSize),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		state:    types.StateIdle,
	}
}

// AttachMonitor wires the activity monitor the controller starts and stops.
func (c *Controller) AttachMonitor(m *monitor.Monitor) {
	c.monitor = m
}

// Start launches the run loop and begins monitoring.
func (c *Controller) Start() {
	c.monitoring = true
	if c.monitor != nil {
		c.monitor.Start()
	}
	go c.run()
}

// Stop halts monitoring and playback and waits for the run loop to exit.
func (c *Controller) Stop() {
	if c.monitor != nil {
		c.monitor.Stop()
	}
	close(c.stopChan)
	<-c.done
}

// ActivityChanged implements monitor.Sink.
func (c *Controller) ActivityChanged(active bool, apps []string) {
	c.send(activityEvent{active: active, apps: apps})
}

// Degraded implements monitor.Sink.
func (c *Controller) Degraded(err error) {
	c.send(degradedEvent{err: err})
}

// Recovered implements monitor.Sink.
func (c *Controller) Recovered() {
	c.send(recoveredEvent{})
}

// SetMonitoring enables or disables the detection loop. Disabling stops any
// ambient playback and clears the silence timer.
func (c *Controller) SetMonitoring(enabled bool) {
	if c.monitor != nil {
		if enabled {
			c.monitor.Start()
		} else {
			c.monitor.Stop()
		}
	}
	c.send(monitoringEvent{enabled: enabled})
}

// StopAmbient fades out and stops any running ambient playback without
// touching the monitoring loop.
func (c *Controller) StopAmbient() {
	c.send(stopAmbientEvent{})
}

// Reload applies the current configuration to the playlist and clears any
// finished-playback latch. A rejected track list leaves the previous one in
// place and is returned to the caller.
func (c *Controller) Reload() error {
	reply := make(chan error, 1)
	c.send(reloadEvent{reply: reply})
	select {
	case err := <-reply:
		return err
	case <-c.stopChan:
		return fmt.Errorf("engine stopped")
	}
}

// Status returns the current engine status snapshot.
func (c *Controller) Status() types.EngineStatus {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// send queues an event for the run loop, giving up on shutdown.
func (c *Controller) send(ev event) {
	select {
	case c.queue <- ev:
	case <-c.stopChan:
	}
}

// run is the engine loop: a single goroutine consuming the inbox, the fade
// ticker and track-finished signals.
func (c *Controller) run() {
	defer close(c.done)

	ticker := time.NewTicker(types.FadeTickInterval)
	defer ticker.Stop()

	c.publishStatus()

	for {
		select {
		case ev := <-c.queue:
			c.handle(ev, time.Now())
		case <-c.player.TrackFinished():
			c.handleTrackFinished(time.Now())
		case now := <-ticker.C:
			c.tick(now)
		case <-c.stopChan:
			c.shutdown()
			return
		}
		c.publishStatus()
	}
}

// shutdown stops playback without fades. Run-loop only.
func (c *Controller) shutdown() {
	c.fades.Cancel()
	if !c.currentTrack.IsZero() {
		c.player.Stop()
	}
	if c.eventLog != nil {
		_ = c.eventLog.Close() //nolint:errcheck // Process is exiting
	}
}

// handle dispatches one inbox event. Run-loop only.
func (c *Controller) handle(ev event, now time.Time) {
	switch ev := ev.(type) {
	case activityEvent:
		c.handleActivity(ev.active, ev.apps, now)
	case degradedEvent:
		c.handleDegraded(ev.err)
	case recoveredEvent:
		c.handleRecovered()
	case monitoringEvent:
		c.handleMonitoring(ev.enabled, now)
	case stopAmbientEvent:
		c.handleStopAmbient(now)
	case reloadEvent:
		ev.reply <- c.handleReload()
	}
}

// handleActivity reacts to an activity transition from the monitor.
func (c *Controller) handleActivity(active bool, apps []string, now time.Time) {
	c.lastActive = active
	c.lastApps = apps

	snap := c.cfg.Snapshot()

	if active {
		c.thresholdPending = false
		switch c.state {
		case types.StateFadingIn, types.StatePlaying:
			if snap.DuckEnabled() {
				c.duck(&snap)
			} else {
				c.beginFadeOut(&snap, now)
			}
		case types.StateDucked, types.StateFadingOut:
			// Already yielding to the foreign audio.
		case types.StateStoppedEnd:
			// A fresh activity period rearms stop modes.
			c.playlist.Reset()
			c.state = types.StateIdle
		}
	} else if c.state == types.StateDucked {
		c.restore(&snap)
	}

	c.advanceTimer(&snap, now)
}

// handleDegraded freezes the engine on the last known activity value.
func (c *Controller) handleDegraded(err error) {
	c.degraded = true
	c.lastError = err.Error()
	c.notifier.MonitorDegraded(err)
	c.logEvent(&events.Entry{Event: events.EventMonitorDegraded, Error: err.Error()})
}

func (c *Controller) handleRecovered() {
	c.degraded = false
	c.notifier.MonitorRecovered()
	c.logEvent(&events.Entry{Event: events.EventMonitorRecovered})
}

// handleMonitoring toggles detection. Disabling stops ambient playback.
func (c *Controller) handleMonitoring(enabled bool, now time.Time) {
	if c.monitoring == enabled {
		return
	}
	c.monitoring = enabled
	c.timer.Reset()
	c.silenceFor = 0
	if !enabled {
		c.handleStopAmbient(now)
	}
	slog.Info("monitoring toggled", "enabled", enabled)
}

// handleStopAmbient fades out running playback on request.
func (c *Controller) handleStopAmbient(now time.Time) {
	c.thresholdPending = false
	snap := c.cfg.Snapshot()
	switch c.state {
	case types.StateFadingIn, types.StatePlaying, types.StateDucked:
		c.beginFadeOut(&snap, now)
	}
}

// handleReload reconfigures the playlist from the current config.
func (c *Controller) handleReload() error {
	snap := c.cfg.Snapshot()
	if err := c.playlist.Configure(&snap); err != nil {
		c.lastError = err.Error()
		return err
	}
	c.lastError = ""
	c.logEvent(&events.Entry{Event: events.EventConfigReloaded})
	slog.Info("playlist configured", "mode", snap.Mode, "tracks", c.playlist.Len())
	return nil
}

// tick advances the silence timer and the active fade ramp.
func (c *Controller) tick(now time.Time) {
	snap := c.cfg.Snapshot()

	c.advanceTimer(&snap, now)

	ev := c.fades.Tick(now)
	if ev.Active {
		c.setVolume(ev.Volume)
		return
	}
	if !ev.Completed {
		return
	}

	c.setVolume(ev.Volume)
	switch ev.Direction {
	case types.FadeIn:
		if c.state == types.StateFadingIn {
			c.state = types.StatePlaying
		}
	case types.FadeOut:
		if c.state == types.StateFadingOut {
			c.finishStop(&snap, now)
		}
	}
}

// advanceTimer feeds the activity value into the silence timer and starts
// ambient playback when the threshold fires. During a capture outage the
// last known value keeps driving the timer rather than a guess.
func (c *Controller) advanceTimer(snap *config.Snapshot, now time.Time) {
	if !c.monitoring {
		return
	}

	threshold := time.Duration(snap.SilenceSeconds * float64(time.Second))
	ev := c.timer.Update(c.lastActive, threshold, now)
	c.silenceFor = ev.SilenceFor

	if !ev.ThresholdReached {
		return
	}
	switch c.state {
	case types.StateIdle, types.StateStoppedEnd:
		c.startAmbient(snap, now)
	case types.StateFadingOut:
		// The fade-out outlasted the threshold; start once the ramp lands.
		c.thresholdPending = true
	}
}

// startAmbient loads a track and fades it in. Unloadable tracks are skipped;
// when no track loads at all the engine stays idle and records the failure.
func (c *Controller) startAmbient(snap *config.Snapshot, now time.Time) {
	track, ok := c.playlist.Next()
	if !ok {
		c.lastError = types.ErrNoPlayableTracks.Error()
		return
	}

	track, ok = c.loadWithSkip(track)
	if !ok {
		return
	}

	c.currentTrack = track
	c.startedAt = now
	c.lastError = ""
	c.player.SetVolume(0)
	c.volume = 0
	c.player.Play()
	c.fades.Start(types.FadeIn, 0, snap.MaxVolume,
		time.Duration(snap.EffectiveFadeInMs())*time.Millisecond, now)
	c.state = types.StateFadingIn

	silenceForMs := c.silenceFor.Milliseconds()
	slog.Info("ambient playback started", "track", track.Name(), "silence_for_ms", silenceForMs)
	c.notifier.AmbientStarted(track.Name(), silenceForMs)
	c.logEvent(&events.Entry{
		Event:      events.EventAmbientStarted,
		Track:      track.Name(),
		DurationMs: silenceForMs,
	})
}

// loadWithSkip loads a track, skipping past unloadable ones. At most one
// full pass over the playlist is attempted.
func (c *Controller) loadWithSkip(track types.Track) (types.Track, bool) {
	attempts := c.playlist.Len()
	for attempts > 0 {
		err := c.player.Load(track)
		if err == nil {
			return track, true
		}

		slog.Warn("track failed to load, skipping", "track", track.Name(), "error", err)
		c.logEvent(&events.Entry{Event: events.EventTrackSkipped, Track: track.Name(), Error: err.Error()})

		if errors.Is(err, types.ErrFileNotFound) || errors.Is(err, types.ErrUnsupportedFormat) {
			var ok bool
			track, ok = c.playlist.SkipCurrent()
			if !ok {
				break
			}
			attempts--
			continue
		}
		// Device-level failure; skipping will not help.
		c.lastError = err.Error()
		return types.Track{}, false
	}

	c.lastError = types.ErrNoPlayableTracks.Error()
	slog.Error("no playable tracks")
	return types.Track{}, false
}

// duck drops the ambient volume to the configured duck level. Any in-flight
// fade is cancelled first so the two never fight over the volume.
func (c *Controller) duck(snap *config.Snapshot) {
	c.fades.Cancel()
	c.setVolume(snap.DuckLevel * snap.MaxVolume)
	c.state = types.StateDucked
	slog.Debug("ambient ducked", "volume", c.volume)
	c.logEvent(&events.Entry{Event: events.EventDucked, Track: c.currentTrack.Name()})
}

// restore returns a ducked track to full volume.
func (c *Controller) restore(snap *config.Snapshot) {
	c.setVolume(snap.MaxVolume)
	c.state = types.StatePlaying
	slog.Debug("ambient restored", "volume", c.volume)
	c.logEvent(&events.Entry{Event: events.EventRestored, Track: c.currentTrack.Name()})
}

// beginFadeOut starts the ramp down toward a stop.
func (c *Controller) beginFadeOut(snap *config.Snapshot, now time.Time) {
	c.fades.Start(types.FadeOut, c.volume, 0,
		time.Duration(snap.EffectiveFadeOutMs())*time.Millisecond, now)
	c.state = types.StateFadingOut
}

// finishStop unloads the track after a completed fade-out. A silence
// threshold that fired during the ramp starts the next playback right away.
func (c *Controller) finishStop(snap *config.Snapshot, now time.Time) {
	c.player.Stop()

	playedMs := now.Sub(c.startedAt).Milliseconds()
	track := c.currentTrack.Name()
	slog.Info("ambient playback stopped", "track", track, "played_ms", playedMs)
	c.notifier.AmbientStopped(track, playedMs, c.lastApps)
	c.logEvent(&events.Entry{
		Event:      events.EventAmbientStopped,
		Track:      track,
		Apps:       c.lastApps,
		DurationMs: playedMs,
	})

	c.currentTrack = types.Track{}
	c.startedAt = time.Time{}
	c.volume = 0
	c.state = types.StateStoppedEnd

	if c.thresholdPending {
		c.thresholdPending = false
		if !c.lastActive {
			c.startAmbient(snap, now)
		}
	}
}

// handleTrackFinished advances the playlist when the loaded track plays to
// its end. The track already stopped producing audio, so stop modes
// transition directly without a fade.
func (c *Controller) handleTrackFinished(now time.Time) {
	switch c.state {
	case types.StateFadingIn, types.StatePlaying, types.StateDucked:
	default:
		return
	}

	next, ok := c.playlist.TrackFinished()
	if !ok {
		c.player.Stop()
		playedMs := now.Sub(c.startedAt).Milliseconds()
		track := c.currentTrack.Name()
		slog.Info("playlist finished", "track", track)
		c.notifier.AmbientStopped(track, playedMs, nil)
		c.logEvent(&events.Entry{
			Event:      events.EventAmbientStopped,
			Track:      track,
			DurationMs: playedMs,
		})
		c.fades.Cancel()
		c.currentTrack = types.Track{}
		c.volume = 0
		c.state = types.StateStoppedEnd
		return
	}

	next, ok = c.loadWithSkip(next)
	if !ok {
		c.fades.Cancel()
		c.currentTrack = types.Track{}
		c.volume = 0
		c.state = types.StateIdle
		return
	}

	// Seamless continuation: keep the current volume and state.
	c.currentTrack = next
	c.player.SetVolume(c.volume)
	c.player.Play()
	slog.Info("next ambient track", "track", next.Name())
}

// setVolume mirrors every player volume change in the loop state.
func (c *Controller) setVolume(v float64) {
	c.player.SetVolume(v)
	c.volume = v
}
