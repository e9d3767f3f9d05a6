// Package config provides application configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/ELSEGuy/silenceplayer/internal/types"
	"github.com/ELSEGuy/silenceplayer/internal/util"
)

// Configuration defaults are used when values are not specified.
const (
	DefaultWebPort        = 8490
	DefaultSilenceSeconds = 30.0
	DefaultPollIntervalMs = 500
	DefaultPeakThreshold  = 0.001
	DefaultMaxVolume      = 0.8
	DefaultFadeInMs       = 2000
	DefaultFadeOutMs      = 2000
	// MinFadeMs is the ramp used when fades are disabled. A handful of
	// milliseconds avoids an audible click without a perceptible fade.
	MinFadeMs = 10
)

// DefaultMirrorApps are the voice-chat processes suppressed by the
// mirroring workaround when it is enabled.
var DefaultMirrorApps = []string{"discord.exe", "discordptb.exe", "discordcanary.exe"}

// SystemConfig holds system-level settings that require restart.
type SystemConfig struct {
	Port       int    `json:"port"`        // Control server port
	FFmpegPath string `json:"ffmpeg_path"` // Path to FFmpeg binary (empty = use PATH)
}

// DetectionConfig holds silence detection thresholds and timing parameters.
type DetectionConfig struct {
	SilenceSeconds float64 `json:"silence_seconds"`  // Silence duration before ambient starts
	PollIntervalMs int64   `json:"poll_interval_ms"` // Session polling cadence
	PeakThreshold  float64 `json:"peak_threshold"`   // Session level above which a process counts as audible
}

// PlaybackConfig holds ambient playback settings.
type PlaybackConfig struct {
	Mode           types.PlaylistMode `json:"mode"`            // Track selection and loop policy
	TrackPath      string             `json:"track_path"`      // Single ambient file (single modes)
	PlaylistFolder string             `json:"playlist_folder"` // Folder of ambient files (playlist modes)
	MaxVolume      float64            `json:"max_volume"`      // Fade-in target volume, 0.0-1.0
	FadeEnabled    bool               `json:"fade_enabled"`    // Disabled fades collapse to MinFadeMs
	FadeInMs       int64              `json:"fade_in_ms"`      // Fade-in duration
	FadeOutMs      int64              `json:"fade_out_ms"`     // Fade-out duration
	DuckLevel      float64            `json:"duck_level"`      // 0 = stop on activity, >0 = duck to this fraction of max volume
}

// FilterConfig holds session filtering settings.
type FilterConfig struct {
	ExcludedApps      []string `json:"excluded_apps"`       // Process names whose audio never counts as activity
	DiscordFixEnabled bool     `json:"discord_fix_enabled"` // Suppress own/mirror-target sessions (audio-mirroring setups)
	MirrorApps        []string `json:"mirror_apps"`         // Mirroring target processes (default: Discord variants)
	OwnProcesses      []string `json:"own_processes"`       // Extra process names treated as the player's own output
}

// NotificationsConfig holds notification channel settings.
type NotificationsConfig struct {
	WebhookURL   string `json:"webhook_url"`    // Webhook for ambient/degraded events
	EventLogPath string `json:"event_log_path"` // JSON-lines engine event history
}

// Config holds all application configuration. It is safe for concurrent use.
type Config struct {
	System        SystemConfig        `json:"system"`
	Detection     DetectionConfig     `json:"detection"`
	Playback      PlaybackConfig      `json:"playback"`
	Filter        FilterConfig        `json:"filter"`
	Notifications NotificationsConfig `json:"notifications"`

	mu       sync.RWMutex
	filePath string
}

// New creates a new Config with default values.
func New(filePath string) *Config {
	return &Config{
		System: SystemConfig{Port: DefaultWebPort},
		Detection: DetectionConfig{
			SilenceSeconds: DefaultSilenceSeconds,
			PollIntervalMs: DefaultPollIntervalMs,
			PeakThreshold:  DefaultPeakThreshold,
		},
		Playback: PlaybackConfig{
			Mode:        types.ModeSingleLoop,
			MaxVolume:   DefaultMaxVolume,
			FadeEnabled: true,
			FadeInMs:    DefaultFadeInMs,
			FadeOutMs:   DefaultFadeOutMs,
		},
		Filter: FilterConfig{
			ExcludedApps: []string{},
			MirrorApps:   slices.Clone(DefaultMirrorApps),
		},
		filePath: filePath,
	}
}

// Load reads config from file, creating a default if none exists.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return c.saveLocked()
	}
	if err != nil {
		return util.WrapError("read config", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return util.WrapError("parse config", err)
	}

	c.applyDefaults()

	if err := c.validateLocked(); err != nil {
		return err
	}

	return nil
}

// validateLocked checks all configuration fields for correctness.
// Caller must hold c.mu.
func (c *Config) validateLocked() error {
	if s := c.Detection.SilenceSeconds; s < 1 || s > 3600 {
		return fmt.Errorf("invalid silence_seconds %v: must be 1-3600", s)
	}
	if p := c.Detection.PollIntervalMs; p < 100 || p > 10000 {
		return fmt.Errorf("invalid poll_interval_ms %d: must be 100-10000", p)
	}
	if v := c.Playback.MaxVolume; v < 0 || v > 1 {
		return fmt.Errorf("invalid max_volume %v: must be 0.0-1.0", v)
	}
	if d := c.Playback.DuckLevel; d < 0 || d > 1 {
		return fmt.Errorf("invalid duck_level %v: must be 0.0-1.0", d)
	}
	if f := c.Playback.FadeInMs; f < 0 || f > 60000 {
		return fmt.Errorf("invalid fade_in_ms %d: must be 0-60000", f)
	}
	if f := c.Playback.FadeOutMs; f < 0 || f > 60000 {
		return fmt.Errorf("invalid fade_out_ms %d: must be 0-60000", f)
	}
	switch c.Playback.Mode {
	case types.ModeSingleLoop, types.ModeSingleStop, types.ModePlaylistLoop,
		types.ModeSongLoop, types.ModePlaylistStop:
	default:
		return fmt.Errorf("invalid playlist mode %q", c.Playback.Mode)
	}
	if c.Playback.TrackPath != "" {
		if err := util.ValidatePath("track_path", c.Playback.TrackPath); err != nil {
			return err
		}
	}
	if c.Playback.PlaylistFolder != "" {
		if err := util.ValidatePath("playlist_folder", c.Playback.PlaylistFolder); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults sets default values for zero-value fields.
func (c *Config) applyDefaults() {
	if c.System.Port == 0 {
		c.System.Port = DefaultWebPort
	}
	if c.Detection.SilenceSeconds == 0 {
		c.Detection.SilenceSeconds = DefaultSilenceSeconds
	}
	if c.Detection.PollIntervalMs == 0 {
		c.Detection.PollIntervalMs = DefaultPollIntervalMs
	}
	if c.Detection.PeakThreshold == 0 {
		c.Detection.PeakThreshold = DefaultPeakThreshold
	}
	if c.Playback.Mode == "" {
		c.Playback.Mode = types.ModeSingleLoop
	}
	if c.Playback.MaxVolume == 0 {
		c.Playback.MaxVolume = DefaultMaxVolume
	}
	if c.Playback.FadeInMs == 0 {
		c.Playback.FadeInMs = DefaultFadeInMs
	}
	if c.Playback.FadeOutMs == 0 {
		c.Playback.FadeOutMs = DefaultFadeOutMs
	}
	if c.Filter.ExcludedApps == nil {
		c.Filter.ExcludedApps = []string{}
	}
	if c.Filter.MirrorApps == nil {
		c.Filter.MirrorApps = slices.Clone(DefaultMirrorApps)
	}
}

// saveLocked persists configuration. Caller must hold c.mu.
func (c *Config) saveLocked() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return util.WrapError("marshal config", err)
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return util.WrapError("create config directory", err)
	}

	if err := os.WriteFile(c.filePath, data, 0o600); err != nil {
		return util.WrapError("write config", err)
	}

	return nil
}

// --- Getters ---

// WebPort returns the control server port.
func (c *Config) WebPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.System.Port
}

// FFmpegPath returns the configured FFmpeg binary path.
func (c *Config) FFmpegPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.System.FFmpegPath
}

// --- Setters ---

// SetDetection updates silence detection parameters and saves the configuration.
func (c *Config) SetDetection(silenceSeconds float64, pollIntervalMs int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.Detection
	if silenceSeconds != 0 {
		c.Detection.SilenceSeconds = silenceSeconds
	}
	if pollIntervalMs != 0 {
		c.Detection.PollIntervalMs = pollIntervalMs
	}
	if err := c.validateLocked(); err != nil {
		c.Detection = prev
		return fmt.Errorf("%w: %v", types.ErrConfigRejected, err)
	}
	return c.saveLocked()
}

// SetPlayback updates ambient playback parameters and saves the configuration.
func (c *Config) SetPlayback(p PlaybackConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.Playback
	c.Playback = p
	c.applyDefaults()
	if err := c.validateLocked(); err != nil {
		c.Playback = prev
		return fmt.Errorf("%w: %v", types.ErrConfigRejected, err)
	}
	return c.saveLocked()
}

// AddExcludedApp adds a process name to the exclusion list and saves.
// Names are stored lowercase; duplicates are ignored.
func (c *Config) AddExcludedApp(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("empty process name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.Contains(c.Filter.ExcludedApps, name) {
		return nil
	}
	c.Filter.ExcludedApps = append(c.Filter.ExcludedApps, name)
	return c.saveLocked()
}

// RemoveExcludedApp removes a process name from the exclusion list and saves.
func (c *Config) RemoveExcludedApp(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))

	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.Index(c.Filter.ExcludedApps, name)
	if i == -1 {
		return fmt.Errorf("process not excluded: %s", name)
	}
	c.Filter.ExcludedApps = slices.Delete(c.Filter.ExcludedApps, i, i+1)
	return c.saveLocked()
}

// SetDiscordFix toggles the mirroring workaround and saves.
func (c *Config) SetDiscordFix(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Filter.DiscordFixEnabled = enabled
	return c.saveLocked()
}

// SetNotifications updates notification settings and saves.
func (c *Config) SetNotifications(webhookURL, eventLogPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if eventLogPath != "" {
		if err := util.ValidatePath("event_log_path", eventLogPath); err != nil {
			return fmt.Errorf("%w: %v", types.ErrConfigRejected, err)
		}
	}
	c.Notifications.WebhookURL = webhookURL
	c.Notifications.EventLogPath = eventLogPath
	return c.saveLocked()
}

// --- Snapshot for atomic reads ---

// Snapshot is a point-in-time copy of configuration values. The engine
// reads one snapshot per tick so it never observes a torn config.
type Snapshot struct {
	// System
	WebPort    int
	FFmpegPath string

	// Detection
	SilenceSeconds float64
	PollIntervalMs int64
	PeakThreshold  float64

	// Playback
	Mode           types.PlaylistMode
	TrackPath      string
	PlaylistFolder string
	MaxVolume      float64
	FadeEnabled    bool
	FadeInMs       int64
	FadeOutMs      int64
	DuckLevel      float64

	// Filtering
	ExcludedApps      []string
	DiscordFixEnabled bool
	MirrorApps        []string
	OwnProcesses      []string

	// Notifications
	WebhookURL   string
	EventLogPath string
}

// orZero is cmp.Or from Go 1.22+; replicated here because the build
// toolchain is Go 1.21, where cmp.Or does not exist.
func orZero[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}

// Snapshot returns a point-in-time copy of all configuration values.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		WebPort:    orZero(c.System.Port, DefaultWebPort),
		FFmpegPath: c.System.FFmpegPath,

		SilenceSeconds: orZero(c.Detection.SilenceSeconds, DefaultSilenceSeconds),
		PollIntervalMs: orZero(c.Detection.PollIntervalMs, int64(DefaultPollIntervalMs)),
		PeakThreshold:  orZero(c.Detection.PeakThreshold, DefaultPeakThreshold),

		Mode:           orZero(c.Playback.Mode, types.ModeSingleLoop),
		TrackPath:      c.Playback.TrackPath,
		PlaylistFolder: c.Playback.PlaylistFolder,
		MaxVolume:      orZero(c.Playback.MaxVolume, DefaultMaxVolume),
		FadeEnabled:    c.Playback.FadeEnabled,
		FadeInMs:       orZero(c.Playback.FadeInMs, int64(DefaultFadeInMs)),
		FadeOutMs:      orZero(c.Playback.FadeOutMs, int64(DefaultFadeOutMs)),
		DuckLevel:      c.Playback.DuckLevel,

		ExcludedApps:      slices.Clone(c.Filter.ExcludedApps),
		DiscordFixEnabled: c.Filter.DiscordFixEnabled,
		MirrorApps:        slices.Clone(c.Filter.MirrorApps),
		OwnProcesses:      slices.Clone(c.Filter.OwnProcesses),

		WebhookURL:   c.Notifications.WebhookURL,
		EventLogPath: c.Notifications.EventLogPath,
	}
}

// EffectiveFadeInMs returns the fade-in duration honoring the fade toggle.
func (s *Snapshot) EffectiveFadeInMs() int64 {
	if !s.FadeEnabled {
		return MinFadeMs
	}
	return s.FadeInMs
}

// EffectiveFadeOutMs returns the fade-out duration honoring the fade toggle.
func (s *Snapshot) EffectiveFadeOutMs() int64 {
	if !s.FadeEnabled {
		return MinFadeMs
	}
	return s.FadeOutMs
}

// DuckEnabled reports whether activity ducks ambient volume instead of
// stopping playback.
func (s *Snapshot) DuckEnabled() bool {
	return s.DuckLevel > 0
}

// HasWebhook reports whether a webhook URL is configured.
func (s *Snapshot) HasWebhook() bool {
	return s.WebhookURL != ""
}

// HasEventLog reports whether an event log path is configured.
func (s *Snapshot) HasEventLog() bool {
	return s.EventLogPath != ""
}
