// Package types provides shared type definitions used across the player.
package types

import (
	"path/filepath"
	"strings"
	"time"
)

// EngineState represents the current state of the playback engine.
type EngineState string

const (
	// StateIdle indicates the engine is monitoring and no ambient playback is active.
	StateIdle EngineState = "idle"
	// StateFadingIn indicates ambient playback is ramping up to the target volume.
	StateFadingIn EngineState = "fading_in"
	// StatePlaying indicates ambient playback is running at full volume.
	StatePlaying EngineState = "playing"
	// StateDucked indicates ambient playback is running at the reduced duck volume.
	StateDucked EngineState = "ducked"
	// StateFadingOut indicates ambient playback is ramping down before stopping.
	StateFadingOut EngineState = "fading_out"
	// StateStoppedEnd indicates playback ran to its configured end and the engine is quiescent.
	StateStoppedEnd EngineState = "stopped_end"
)

// Format represents a supported ambient track container/codec.
type Format string

// Supported track formats.
const (
	FormatMP3  Format = "mp3"
	FormatOpus Format = "opus"
	FormatM4A  Format = "m4a"
	FormatFLAC Format = "flac"
	FormatMP4  Format = "mp4"
)

// formatByExtension maps lowercase file extensions to track formats.
var formatByExtension = map[string]Format{
	".mp3":  FormatMP3,
	".opus": FormatOpus,
	".m4a":  FormatM4A,
	".flac": FormatFLAC,
	".mp4":  FormatMP4,
}

// FormatForPath returns the track format for a file path, or false if the
// extension is not a supported ambient format.
func FormatForPath(path string) (Format, bool) {
	f, ok := formatByExtension[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Track is a single ambient audio file. Immutable once loaded.
type Track struct {
	Path   string `json:"path"`
	Format Format `json:"format"`
}

// Name returns the track's file name for display.
func (t Track) Name() string {
	return filepath.Base(t.Path)
}

// IsZero reports whether the track is unset.
func (t Track) IsZero() bool {
	return t.Path == ""
}

// PlaylistMode determines track ordering and loop policy.
type PlaylistMode string

const (
	// ModeSingleLoop repeats one configured track forever.
	ModeSingleLoop PlaylistMode = "single_loop"
	// ModeSingleStop plays one configured track once, then stops.
	ModeSingleStop PlaylistMode = "single_stop"
	// ModePlaylistLoop plays a folder of tracks in order, wrapping after the last.
	ModePlaylistLoop PlaylistMode = "playlist_loop"
	// ModeSongLoop repeats the current playlist track forever.
	ModeSongLoop PlaylistMode = "song_loop"
	// ModePlaylistStop plays a folder of tracks in order, then stops.
	ModePlaylistStop PlaylistMode = "playlist_stop"
)

// IsPlaylist reports whether the mode selects tracks from a folder rather
// than a single configured file.
func (m PlaylistMode) IsPlaylist() bool {
	return m == ModePlaylistLoop || m == ModePlaylistStop || m == ModeSongLoop
}

// FadeDirection indicates whether a fade job ramps volume up or down.
type FadeDirection string

const (
	// FadeIn ramps volume up toward the target.
	FadeIn FadeDirection = "in"
	// FadeOut ramps volume down toward the target.
	FadeOut FadeDirection = "out"
)

// Timing constants for the engine's periodic activities. Silence detection
// tolerates latency, volume ramps do not, hence the cadence difference.
const (
	// DefaultPollInterval is the session polling cadence of the activity monitor.
	DefaultPollInterval = 500 * time.Millisecond
	// FadeTickInterval is the fade scheduler advance cadence.
	FadeTickInterval = 25 * time.Millisecond
	// InitialRetryDelay is the starting delay after a capture failure.
	InitialRetryDelay = 1000 * time.Millisecond
	// MaxRetryDelay is the maximum delay between capture retries.
	MaxRetryDelay = 30000 * time.Millisecond
	// ShutdownTimeout is the duration to wait for graceful shutdown.
	ShutdownTimeout = 3000 * time.Millisecond
)

// EngineStatus is the read-only snapshot of the playback controller exposed
// to the UI surface. Single writer (the engine); safe to copy.
type EngineStatus struct {
	State        EngineState `json:"state"`
	CurrentTrack Track       `json:"current_track,omitzero"`
	Volume       float64     `json:"volume"`                      // current ambient volume, 0.0-1.0
	Monitoring   bool        `json:"monitoring"`                  // monitor loop running
	Degraded     bool        `json:"degraded"`                    // capture collaborator unavailable
	SilenceForMs int64       `json:"silence_for_ms,omitzero"`     // accumulated silence while counting
	ActiveApps   []string    `json:"active_apps,omitempty"`       // process names currently producing audio
	LastError    string      `json:"last_error,omitzero"`         // most recent non-fatal failure
	StatusLine   string      `json:"status_line"`                 // human-readable state for the tray
	StartedAt    int64       `json:"started_at_unix_ms,omitzero"` // when ambient playback began
}

// WSStatusResponse is sent to clients with full engine and config status.
type WSStatusResponse struct {
	Type              string       `json:"type"`
	Engine            EngineStatus `json:"engine"`
	SilenceSeconds    float64      `json:"silence_seconds"`
	FadeInMs          int64        `json:"fade_in_ms"`
	FadeOutMs         int64        `json:"fade_out_ms"`
	FadeEnabled       bool         `json:"fade_enabled"`
	DuckLevel         float64      `json:"duck_level"`
	MaxVolume         float64      `json:"max_volume"`
	PlaylistMode      PlaylistMode `json:"playlist_mode"`
	TrackPath         string       `json:"track_path"`
	PlaylistFolder    string       `json:"playlist_folder"`
	ExcludedApps      []string     `json:"excluded_apps"`
	DiscordFixEnabled bool         `json:"discord_fix_enabled"`
	MirrorApps        []string     `json:"mirror_apps"`
	WebhookURL        string       `json:"webhook_url"`
	EventLogPath      string       `json:"event_log_path"`
	CaptureSupported  bool         `json:"capture_supported"`
	Platform          string       `json:"platform"`
	Version           VersionInfo  `json:"version"`
}

// VersionInfo contains version comparison data.
type VersionInfo struct {
	Current     string `json:"current"`
	Latest      string `json:"latest,omitempty"`
	UpdateAvail bool   `json:"update_available"`
	Commit      string `json:"commit,omitempty"`
	BuildTime   string `json:"build_time,omitempty"`
}
