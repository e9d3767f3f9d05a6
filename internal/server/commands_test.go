package server

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/ELSEGuy/silenceplayer/internal/config"
	"github.com/ELSEGuy/silenceplayer/internal/types"
)

// fakeEngine records control calls without a real playback loop.
type fakeEngine struct {
	monitoring  []bool
	stops       int
	reloads     int
	reloadErr   error
	status      types.EngineStatus
}

func (e *fakeEngine) SetMonitoring(enabled bool) { e.monitoring = append(e.monitoring, enabled) }
func (e *fakeEngine) StopAmbient()               { e.stops++ }
func (e *fakeEngine) Reload() error              { e.reloads++; return e.reloadErr }
func (e *fakeEngine) Status() types.EngineStatus { return e.status }

func newTestHandler(t *testing.T) (*CommandHandler, *fakeEngine) {
	t.Helper()
	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	eng := &fakeEngine{}
	return NewCommandHandler(cfg, eng), eng
}

// runCommand dispatches a command and returns the first response.
func runCommand(t *testing.T, h *CommandHandler, cmdType string, data any) map[string]any {
	t.Helper()

	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		raw = b
	}

	send := make(chan any, 16)
	h.Handle(WSCommand{Type: cmdType, Data: raw}, send, func() {})

	select {
	case msg := <-send:
		result, ok := msg.(map[string]any)
		if !ok {
			t.Fatalf("response type %T", msg)
		}
		return result
	default:
		t.Fatal("no response sent")
		return nil
	}
}

func TestDetectionUpdateAppliesConfig(t *testing.T) {
	h, _ := newTestHandler(t)

	silence := 12.0
	result := runCommand(t, h, "detection/update", DetectionUpdateRequest{SilenceSeconds: &silence})
	if result["success"] != true {
		t.Fatalf("result = %v", result)
	}
	if got := h.cfg.Snapshot().SilenceSeconds; got != 12 {
		t.Fatalf("SilenceSeconds = %v, want 12", got)
	}
}

func TestDetectionUpdateRejectsOutOfRange(t *testing.T) {
	h, _ := newTestHandler(t)
	prev := h.cfg.Snapshot().SilenceSeconds

	silence := 0.2
	result := runCommand(t, h, "detection/update", DetectionUpdateRequest{SilenceSeconds: &silence})
	if result["success"] != false {
		t.Fatalf("out-of-range update accepted: %v", result)
	}
	if got := h.cfg.Snapshot().SilenceSeconds; got != prev {
		t.Fatalf("SilenceSeconds = %v after rejection, want %v", got, prev)
	}
}

func TestPlaybackUpdateRejectsUnknownMode(t *testing.T) {
	h, eng := newTestHandler(t)

	result := runCommand(t, h, "playback/update", map[string]any{"mode": "shuffle"})
	if result["success"] != false {
		t.Fatalf("invalid mode accepted: %v", result)
	}
	if eng.reloads != 0 {
		t.Fatal("engine reloaded despite validation failure")
	}
}

func TestPlaybackUpdateReloadsEngine(t *testing.T) {
	h, eng := newTestHandler(t)

	result := runCommand(t, h, "playback/update", PlaybackUpdateRequest{
		Mode:      "single_loop",
		TrackPath: "/music/rain.mp3",
		MaxVolume: 0.8,
	})
	if result["success"] != true {
		t.Fatalf("result = %v", result)
	}
	if eng.reloads != 1 {
		t.Fatalf("reloads = %d, want 1", eng.reloads)
	}
}

func TestFilterExcludeRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)

	result := runCommand(t, h, "filter/exclude", ExcludedAppRequest{Name: "Spotify.exe"})
	if result["success"] != true {
		t.Fatalf("exclude failed: %v", result)
	}
	snap := h.cfg.Snapshot()
	if len(snap.ExcludedApps) != 1 || snap.ExcludedApps[0] != "spotify.exe" {
		t.Fatalf("ExcludedApps = %v", snap.ExcludedApps)
	}

	result = runCommand(t, h, "filter/include", ExcludedAppRequest{Name: "spotify.exe"})
	if result["success"] != true {
		t.Fatalf("include failed: %v", result)
	}
	if got := h.cfg.Snapshot().ExcludedApps; len(got) != 0 {
		t.Fatalf("ExcludedApps = %v after include", got)
	}
}

func TestFilterExcludeRequiresName(t *testing.T) {
	h, _ := newTestHandler(t)

	result := runCommand(t, h, "filter/exclude", map[string]any{})
	if result["success"] != false {
		t.Fatalf("empty name accepted: %v", result)
	}
}

func TestEngineMonitoringCommand(t *testing.T) {
	h, eng := newTestHandler(t)

	enabled := false
	result := runCommand(t, h, "engine/monitoring", MonitoringRequest{Enabled: &enabled})
	if result["success"] != true {
		t.Fatalf("result = %v", result)
	}
	if len(eng.monitoring) != 1 || eng.monitoring[0] != false {
		t.Fatalf("monitoring calls = %v", eng.monitoring)
	}
}

func TestEngineStopCommand(t *testing.T) {
	h, eng := newTestHandler(t)

	result := runCommand(t, h, "engine/stop", nil)
	if result["success"] != true {
		t.Fatalf("result = %v", result)
	}
	if eng.stops != 1 {
		t.Fatalf("stops = %d, want 1", eng.stops)
	}
}

func TestWebhookUpdatePreservesLogPath(t *testing.T) {
	h, _ := newTestHandler(t)

	if err := h.cfg.SetNotifications("", "/var/log/player.jsonl"); err != nil {
		t.Fatalf("seed notifications: %v", err)
	}

	result := runCommand(t, h, "notifications/webhook/update", WebhookUpdateRequest{URL: "https://example.com/hook"})
	if result["success"] != true {
		t.Fatalf("result = %v", result)
	}

	snap := h.cfg.Snapshot()
	if snap.WebhookURL != "https://example.com/hook" {
		t.Fatalf("WebhookURL = %q", snap.WebhookURL)
	}
	if snap.EventLogPath != "/var/log/player.jsonl" {
		t.Fatalf("EventLogPath = %q, log path clobbered", snap.EventLogPath)
	}
}
