package engine

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ELSEGuy/silenceplayer/internal/config"
	"github.com/ELSEGuy/silenceplayer/internal/notify"
	"github.com/ELSEGuy/silenceplayer/internal/playlist"
	"github.com/ELSEGuy/silenceplayer/internal/types"
)

// fakePlayer records playback commands without touching the audio device.
type fakePlayer struct {
	loaded   types.Track
	playing  bool
	volume   float64
	stops    int
	loadErr  map[string]error
	finished chan struct{}
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		loadErr:  map[string]error{},
		finished: make(chan struct{}, 1),
	}
}

func (p *fakePlayer) Load(track types.Track) error {
	if err := p.loadErr[track.Name()]; err != nil {
		return err
	}
	p.loaded = track
	p.playing = false
	p.volume = 0
	return nil
}

func (p *fakePlayer) Play()                 { p.playing = true }
func (p *fakePlayer) Pause()                { p.playing = false }
func (p *fakePlayer) SetVolume(v float64)   { p.volume = v }
func (p *fakePlayer) Stop()                 { p.stops++; p.playing = false; p.loaded = types.Track{} }
func (p *fakePlayer) Close() error          { return nil }
func (p *fakePlayer) TrackFinished() <-chan struct{} {
	return p.finished
}

// newTestController builds a controller with a fake player and the given
// playback settings. The run loop is not started; tests drive the handlers
// directly with a synthetic clock.
func newTestController(t *testing.T, playback config.PlaybackConfig) (*Controller, *fakePlayer) {
	t.Helper()

	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	if err := cfg.SetDetection(5, 500); err != nil {
		t.Fatalf("set detection: %v", err)
	}
	if err := cfg.SetPlayback(playback); err != nil {
		t.Fatalf("set playback: %v", err)
	}

	p := newFakePlayer()
	pl := playlist.NewManager()
	snap := cfg.Snapshot()
	if err := pl.Configure(&snap); err != nil {
		t.Fatalf("configure playlist: %v", err)
	}

	c := New(cfg, p, pl, notify.New(cfg))
	c.monitoring = true
	return c, p
}

func singleLoopPlayback() config.PlaybackConfig {
	return config.PlaybackConfig{
		Mode:        types.ModeSingleLoop,
		TrackPath:   "/music/rain.mp3",
		MaxVolume:   0.8,
		FadeEnabled: true,
		FadeInMs:    2000,
		FadeOutMs:   1000,
	}
}

func TestSilenceTriggersFadeInThenActivityFadesOut(t *testing.T) {
	c, p := newTestController(t, singleLoopPlayback())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Silence begins.
	c.handleActivity(false, nil, t0)
	if c.state != types.StateIdle {
		t.Fatalf("state = %s, want idle", c.state)
	}

	// Threshold reached after 5s: playback starts at volume 0.
	c.tick(t0.Add(5 * time.Second))
	if c.state != types.StateFadingIn {
		t.Fatalf("state = %s, want fading_in", c.state)
	}
	if p.loaded.Name() != "rain.mp3" || !p.playing {
		t.Fatalf("player not playing the track: loaded=%v playing=%v", p.loaded, p.playing)
	}

	// Midway through the 2s fade-in.
	c.tick(t0.Add(6 * time.Second))
	if math.Abs(p.volume-0.4) > 1e-9 {
		t.Fatalf("mid-fade volume = %v, want 0.4", p.volume)
	}

	// Fade-in completes at max volume.
	c.tick(t0.Add(7 * time.Second))
	if c.state != types.StatePlaying {
		t.Fatalf("state = %s, want playing", c.state)
	}
	if p.volume != 0.8 {
		t.Fatalf("volume = %v, want 0.8", p.volume)
	}

	// Foreign audio returns: fade out from the current volume.
	c.handleActivity(true, []string{"spotify.exe"}, t0.Add(8*time.Second))
	if c.state != types.StateFadingOut {
		t.Fatalf("state = %s, want fading_out", c.state)
	}

	c.tick(t0.Add(8500 * time.Millisecond))
	if math.Abs(p.volume-0.4) > 1e-9 {
		t.Fatalf("mid-fade-out volume = %v, want 0.4", p.volume)
	}

	c.tick(t0.Add(9 * time.Second))
	if c.state != types.StateStoppedEnd {
		t.Fatalf("state = %s, want stopped_end", c.state)
	}
	if p.stops != 1 {
		t.Fatalf("player stops = %d, want 1", p.stops)
	}
}

func TestActivityDuringFadeInCancelsRamp(t *testing.T) {
	c, p := newTestController(t, singleLoopPlayback())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.handleActivity(false, nil, t0)
	c.tick(t0.Add(5 * time.Second))
	c.tick(t0.Add(6 * time.Second)) // mid fade-in, volume 0.4

	c.handleActivity(true, nil, t0.Add(6*time.Second))
	if c.state != types.StateFadingOut {
		t.Fatalf("state = %s, want fading_out", c.state)
	}

	// The fade-out starts from the interrupted volume, not from max.
	c.tick(t0.Add(6500 * time.Millisecond))
	if math.Abs(p.volume-0.2) > 1e-9 {
		t.Fatalf("volume = %v, want 0.2", p.volume)
	}
}

func TestThresholdDoesNotRefireDuringContinuedSilence(t *testing.T) {
	c, p := newTestController(t, singleLoopPlayback())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.handleActivity(false, nil, t0)
	c.tick(t0.Add(5 * time.Second))
	c.tick(t0.Add(7 * time.Second)) // fade-in complete

	// Stop ambient manually; continued silence must not restart it.
	c.handleStopAmbient(t0.Add(8 * time.Second))
	c.tick(t0.Add(9 * time.Second)) // fade-out complete
	if c.state != types.StateStoppedEnd {
		t.Fatalf("state = %s, want stopped_end", c.state)
	}

	c.tick(t0.Add(20 * time.Second))
	if c.state != types.StateStoppedEnd {
		t.Fatalf("ambient restarted without a new silence period: state = %s", c.state)
	}
	if p.stops != 1 {
		t.Fatalf("stops = %d, want 1", p.stops)
	}
}

func TestThresholdDuringFadeOutStartsAfterRamp(t *testing.T) {
	playback := singleLoopPlayback()
	playback.FadeOutMs = 10000 // ramp longer than the 5s threshold
	c, p := newTestController(t, playback)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.handleActivity(false, nil, t0)
	c.tick(t0.Add(5 * time.Second))
	c.tick(t0.Add(7 * time.Second)) // fade-in complete

	// Activity starts the long fade-out, then goes quiet again.
	c.handleActivity(true, nil, t0.Add(8*time.Second))
	c.handleActivity(false, nil, t0.Add(9*time.Second))

	// The threshold fires mid-ramp; the ramp keeps going.
	c.tick(t0.Add(14 * time.Second))
	if c.state != types.StateFadingOut {
		t.Fatalf("state = %s, want fading_out", c.state)
	}

	// Once the ramp lands the pending threshold starts the next playback.
	c.tick(t0.Add(18 * time.Second))
	if c.state != types.StateFadingIn {
		t.Fatalf("state = %s after ramp, want fading_in", c.state)
	}
	if !p.playing {
		t.Fatal("player not restarted after pending threshold")
	}
	if p.stops != 1 {
		t.Fatalf("stops = %d, want 1", p.stops)
	}
}

func TestActivityCancelsPendingThreshold(t *testing.T) {
	playback := singleLoopPlayback()
	playback.FadeOutMs = 10000
	c, p := newTestController(t, playback)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.handleActivity(false, nil, t0)
	c.tick(t0.Add(5 * time.Second))
	c.tick(t0.Add(7 * time.Second))
	c.handleActivity(true, nil, t0.Add(8*time.Second))
	c.handleActivity(false, nil, t0.Add(9*time.Second))
	c.tick(t0.Add(14 * time.Second)) // threshold fires mid-ramp

	// Activity returns before the ramp lands: no restart.
	c.handleActivity(true, nil, t0.Add(15*time.Second))
	c.tick(t0.Add(18 * time.Second))
	if c.state != types.StateStoppedEnd {
		t.Fatalf("state = %s, want stopped_end", c.state)
	}
	if p.playing {
		t.Fatal("playback restarted despite resumed activity")
	}
}

func TestDuckPolicyInsteadOfFadeOut(t *testing.T) {
	playback := singleLoopPlayback()
	playback.DuckLevel = 0.5
	c, p := newTestController(t, playback)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.handleActivity(false, nil, t0)
	c.tick(t0.Add(5 * time.Second))
	c.tick(t0.Add(7 * time.Second))
	if c.state != types.StatePlaying {
		t.Fatalf("state = %s, want playing", c.state)
	}

	// Activity ducks instead of stopping.
	c.handleActivity(true, []string{"spotify.exe"}, t0.Add(8*time.Second))
	if c.state != types.StateDucked {
		t.Fatalf("state = %s, want ducked", c.state)
	}
	if math.Abs(p.volume-0.4) > 1e-9 {
		t.Fatalf("duck volume = %v, want 0.4 (0.5 of max 0.8)", p.volume)
	}
	if p.stops != 0 {
		t.Fatal("duck policy stopped playback")
	}

	// Silence restores full volume immediately.
	c.handleActivity(false, nil, t0.Add(9*time.Second))
	if c.state != types.StatePlaying {
		t.Fatalf("state = %s, want playing", c.state)
	}
	if p.volume != 0.8 {
		t.Fatalf("restored volume = %v, want 0.8", p.volume)
	}
}

func TestSingleStopLatchesUntilActivity(t *testing.T) {
	playback := singleLoopPlayback()
	playback.Mode = types.ModeSingleStop
	c, p := newTestController(t, playback)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.handleActivity(false, nil, t0)
	c.tick(t0.Add(5 * time.Second))
	c.tick(t0.Add(7 * time.Second))

	// Track plays to its end: no follow-up track in single_stop.
	c.handleTrackFinished(t0.Add(100 * time.Second))
	if c.state != types.StateStoppedEnd {
		t.Fatalf("state = %s, want stopped_end", c.state)
	}
	if p.stops != 1 {
		t.Fatalf("stops = %d, want 1", p.stops)
	}

	// A fresh activity period rearms the playlist.
	c.handleActivity(true, nil, t0.Add(101*time.Second))
	if c.state != types.StateIdle {
		t.Fatalf("state = %s, want idle", c.state)
	}
	c.handleActivity(false, nil, t0.Add(102*time.Second))
	c.tick(t0.Add(107 * time.Second))
	if c.state != types.StateFadingIn {
		t.Fatalf("state = %s after rearm, want fading_in", c.state)
	}
}

func TestTrackFinishedContinuesSeamlessly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	c, p := newTestController(t, config.PlaybackConfig{
		Mode:           types.ModePlaylistLoop,
		PlaylistFolder: dir,
		MaxVolume:      0.8,
		FadeEnabled:    true,
		FadeInMs:       2000,
		FadeOutMs:      1000,
	})
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.handleActivity(false, nil, t0)
	c.tick(t0.Add(5 * time.Second))
	c.tick(t0.Add(7 * time.Second))
	if p.loaded.Name() != "a.mp3" {
		t.Fatalf("loaded = %s, want a.mp3", p.loaded.Name())
	}

	c.handleTrackFinished(t0.Add(60 * time.Second))
	if c.state != types.StatePlaying {
		t.Fatalf("state = %s, want playing", c.state)
	}
	if p.loaded.Name() != "b.mp3" {
		t.Fatalf("loaded = %s, want b.mp3", p.loaded.Name())
	}
	// The next track continues at the established volume, no new fade.
	if p.volume != 0.8 {
		t.Fatalf("volume = %v, want 0.8", p.volume)
	}
}

func TestUnloadableTrackIsSkipped(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	c, p := newTestController(t, config.PlaybackConfig{
		Mode:           types.ModePlaylistLoop,
		PlaylistFolder: dir,
		MaxVolume:      0.8,
		FadeEnabled:    true,
		FadeInMs:       2000,
		FadeOutMs:      1000,
	})
	p.loadErr["a.mp3"] = fmt.Errorf("%w: a.mp3", types.ErrFileNotFound)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.handleActivity(false, nil, t0)
	c.tick(t0.Add(5 * time.Second))

	if c.state != types.StateFadingIn {
		t.Fatalf("state = %s, want fading_in", c.state)
	}
	if p.loaded.Name() != "b.mp3" {
		t.Fatalf("loaded = %s, want b.mp3 after skip", p.loaded.Name())
	}
}

func TestNoPlayableTracksStaysIdle(t *testing.T) {
	c, p := newTestController(t, singleLoopPlayback())
	p.loadErr["rain.mp3"] = fmt.Errorf("%w: rain.mp3", types.ErrFileNotFound)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.handleActivity(false, nil, t0)
	c.tick(t0.Add(5 * time.Second))

	if c.state != types.StateIdle {
		t.Fatalf("state = %s, want idle", c.state)
	}
	if c.lastError == "" {
		t.Fatal("load failure not recorded")
	}
}

func TestMonitoringDisabledStopsCounting(t *testing.T) {
	c, _ := newTestController(t, singleLoopPlayback())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.handleActivity(false, nil, t0)
	c.handleMonitoring(false, t0.Add(time.Second))

	c.tick(t0.Add(20 * time.Second))
	if c.state != types.StateIdle {
		t.Fatalf("ambient started while paused: state = %s", c.state)
	}
	if c.silenceFor != 0 {
		t.Fatalf("silence accumulated while paused: %v", c.silenceFor)
	}
}

func TestDegradedFreezesLastActivityValue(t *testing.T) {
	c, _ := newTestController(t, singleLoopPlayback())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Silence established, then the capture collaborator fails.
	c.handleActivity(false, nil, t0)
	c.handleDegraded(fmt.Errorf("pactl not found"))

	// The frozen silent value keeps driving the timer.
	c.tick(t0.Add(5 * time.Second))
	if c.state != types.StateFadingIn {
		t.Fatalf("state = %s, want fading_in (frozen value keeps counting)", c.state)
	}

	c.publishStatus()
	if !c.Status().Degraded {
		t.Fatal("degraded flag not exposed in status")
	}

	c.handleRecovered()
	c.publishStatus()
	if c.Status().Degraded {
		t.Fatal("degraded flag stuck after recovery")
	}
}

func TestStatusLine(t *testing.T) {
	c, _ := newTestController(t, singleLoopPlayback())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	c.publishStatus()
	if got := c.Status().StatusLine; got != "Monitoring" {
		t.Fatalf("status line = %q, want Monitoring", got)
	}

	c.handleActivity(false, nil, t0)
	c.tick(t0.Add(3 * time.Second))
	c.publishStatus()
	if got := c.Status().StatusLine; got != "Monitoring (silence 3s/5s)" {
		t.Fatalf("status line = %q", got)
	}

	c.tick(t0.Add(5 * time.Second))
	c.publishStatus()
	if got := c.Status().StatusLine; got != "Fading in: rain.mp3" {
		t.Fatalf("status line = %q", got)
	}
}
