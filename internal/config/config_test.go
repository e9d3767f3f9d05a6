package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ELSEGuy/silenceplayer/internal/types"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "config.json"))
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := New(path)

	if err := cfg.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	snap := cfg.Snapshot()
	if snap.SilenceSeconds != DefaultSilenceSeconds {
		t.Fatalf("SilenceSeconds = %v, want %v", snap.SilenceSeconds, DefaultSilenceSeconds)
	}
	if snap.Mode != types.ModeSingleLoop {
		t.Fatalf("Mode = %v, want single_loop", snap.Mode)
	}
	if snap.MaxVolume != DefaultMaxVolume {
		t.Fatalf("MaxVolume = %v, want %v", snap.MaxVolume, DefaultMaxVolume)
	}
	if len(snap.MirrorApps) == 0 {
		t.Fatal("default mirror apps missing")
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	partial := `{"detection": {"silence_seconds": 10}}`
	if err := os.WriteFile(path, []byte(partial), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := New(path)
	if err := cfg.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	snap := cfg.Snapshot()
	if snap.SilenceSeconds != 10 {
		t.Fatalf("SilenceSeconds = %v, want 10", snap.SilenceSeconds)
	}
	if snap.PollIntervalMs != DefaultPollIntervalMs {
		t.Fatalf("PollIntervalMs = %v, want default", snap.PollIntervalMs)
	}
	if snap.WebPort != DefaultWebPort {
		t.Fatalf("WebPort = %v, want default", snap.WebPort)
	}
}

func TestSetDetectionRejectsAndRestores(t *testing.T) {
	cfg := newTestConfig(t)

	if err := cfg.SetDetection(10, 0); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}

	err := cfg.SetDetection(0.5, 0)
	if err == nil {
		t.Fatal("out-of-range silence_seconds accepted")
	}
	if !errors.Is(err, types.ErrConfigRejected) {
		t.Fatalf("error = %v, want ErrConfigRejected", err)
	}

	// Previous value survives the rejected update.
	if got := cfg.Snapshot().SilenceSeconds; got != 10 {
		t.Fatalf("SilenceSeconds = %v after rejection, want 10", got)
	}
}

func TestSetPlaybackRejectsInvalidMode(t *testing.T) {
	cfg := newTestConfig(t)
	prev := cfg.Snapshot().Mode

	err := cfg.SetPlayback(PlaybackConfig{Mode: "shuffle"})
	if !errors.Is(err, types.ErrConfigRejected) {
		t.Fatalf("error = %v, want ErrConfigRejected", err)
	}
	if got := cfg.Snapshot().Mode; got != prev {
		t.Fatalf("Mode = %v after rejection, want %v", got, prev)
	}
}

func TestExcludedAppsRoundTrip(t *testing.T) {
	cfg := newTestConfig(t)

	if err := cfg.AddExcludedApp("  Spotify.EXE "); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Duplicate adds are ignored.
	if err := cfg.AddExcludedApp("spotify.exe"); err != nil {
		t.Fatalf("duplicate add: %v", err)
	}

	snap := cfg.Snapshot()
	if len(snap.ExcludedApps) != 1 || snap.ExcludedApps[0] != "spotify.exe" {
		t.Fatalf("ExcludedApps = %v", snap.ExcludedApps)
	}

	if err := cfg.RemoveExcludedApp("SPOTIFY.exe"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := cfg.RemoveExcludedApp("spotify.exe"); err == nil {
		t.Fatal("removing a missing entry succeeded")
	}
}

func TestEffectiveFadeDurations(t *testing.T) {
	snap := Snapshot{FadeEnabled: true, FadeInMs: 2000, FadeOutMs: 1500}
	if got := snap.EffectiveFadeInMs(); got != 2000 {
		t.Fatalf("EffectiveFadeInMs = %d, want 2000", got)
	}

	snap.FadeEnabled = false
	if got := snap.EffectiveFadeInMs(); got != MinFadeMs {
		t.Fatalf("EffectiveFadeInMs = %d with fades off, want %d", got, MinFadeMs)
	}
	if got := snap.EffectiveFadeOutMs(); got != MinFadeMs {
		t.Fatalf("EffectiveFadeOutMs = %d with fades off, want %d", got, MinFadeMs)
	}
}

func TestDuckEnabled(t *testing.T) {
	snap := Snapshot{}
	if snap.DuckEnabled() {
		t.Fatal("duck enabled at level 0")
	}
	snap.DuckLevel = 0.3
	if !snap.DuckEnabled() {
		t.Fatal("duck disabled at level 0.3")
	}
}

func TestSnapshotIsolatedFromLaterChanges(t *testing.T) {
	cfg := newTestConfig(t)
	snap := cfg.Snapshot()

	if err := cfg.AddExcludedApp("chrome.exe"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(snap.ExcludedApps) != 0 {
		t.Fatal("snapshot mutated by later config change")
	}
}
