package server

import (
	"github.com/ELSEGuy/silenceplayer/internal/config"
	"github.com/ELSEGuy/silenceplayer/internal/types"
)

// handleDetectionUpdate processes detection/update commands.
func (h *CommandHandler) handleDetectionUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *DetectionUpdateRequest) error {
		var silenceSeconds float64
		var pollIntervalMs int64
		if req.SilenceSeconds != nil {
			silenceSeconds = *req.SilenceSeconds
		}
		if req.PollIntervalMs != nil {
			pollIntervalMs = *req.PollIntervalMs
		}
		return h.cfg.SetDetection(silenceSeconds, pollIntervalMs)
	})
}

// handleDetectionGet processes detection/get commands.
func (h *CommandHandler) handleDetectionGet(send chan<- any) {
	snap := h.cfg.Snapshot()
	SendSuccess(send, "detection/get", map[string]any{
		"silence_seconds":  snap.SilenceSeconds,
		"poll_interval_ms": snap.PollIntervalMs,
		"peak_threshold":   snap.PeakThreshold,
	})
}

// handlePlaybackUpdate processes playback/update commands. A successful
// config change reconfigures the playlist; a rejected track list rolls the
// config back so the engine keeps playing from the previous list.
func (h *CommandHandler) handlePlaybackUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *PlaybackUpdateRequest) error {
		prev := h.cfg.Snapshot()

		playback := config.PlaybackConfig{
			Mode:           types.PlaylistMode(req.Mode),
			TrackPath:      req.TrackPath,
			PlaylistFolder: req.PlaylistFolder,
			MaxVolume:      req.MaxVolume,
			FadeEnabled:    req.FadeEnabled,
			FadeInMs:       req.FadeInMs,
			FadeOutMs:      req.FadeOutMs,
			DuckLevel:      req.DuckLevel,
		}
		if err := h.cfg.SetPlayback(playback); err != nil {
			return err
		}

		if err := h.engine.Reload(); err != nil {
			// Roll back so config and playlist stay consistent.
			_ = h.cfg.SetPlayback(config.PlaybackConfig{ //nolint:errcheck // Previous value already validated
				Mode:           prev.Mode,
				TrackPath:      prev.TrackPath,
				PlaylistFolder: prev.PlaylistFolder,
				MaxVolume:      prev.MaxVolume,
				FadeEnabled:    prev.FadeEnabled,
				FadeInMs:       prev.FadeInMs,
				FadeOutMs:      prev.FadeOutMs,
				DuckLevel:      prev.DuckLevel,
			})
			return err
		}
		return nil
	})
}

// handlePlaybackGet processes playback/get commands.
func (h *CommandHandler) handlePlaybackGet(send chan<- any) {
	snap := h.cfg.Snapshot()
	SendSuccess(send, "playback/get", map[string]any{
		"mode":            snap.Mode,
		"track_path":      snap.TrackPath,
		"playlist_folder": snap.PlaylistFolder,
		"max_volume":      snap.MaxVolume,
		"fade_enabled":    snap.FadeEnabled,
		"fade_in_ms":      snap.FadeInMs,
		"fade_out_ms":     snap.FadeOutMs,
		"duck_level":      snap.DuckLevel,
	})
}

// handleConfigGet processes config/get commands.
func (h *CommandHandler) handleConfigGet(send chan<- any) {
	snap := h.cfg.Snapshot()
	SendSuccess(send, "config/get", map[string]any{
		"port":                snap.WebPort,
		"ffmpeg_path":         snap.FFmpegPath,
		"silence_seconds":     snap.SilenceSeconds,
		"poll_interval_ms":    snap.PollIntervalMs,
		"peak_threshold":      snap.PeakThreshold,
		"mode":                snap.Mode,
		"track_path":          snap.TrackPath,
		"playlist_folder":     snap.PlaylistFolder,
		"max_volume":          snap.MaxVolume,
		"fade_enabled":        snap.FadeEnabled,
		"fade_in_ms":          snap.FadeInMs,
		"fade_out_ms":         snap.FadeOutMs,
		"duck_level":          snap.DuckLevel,
		"excluded_apps":       snap.ExcludedApps,
		"discord_fix_enabled": snap.DiscordFixEnabled,
		"mirror_apps":         snap.MirrorApps,
		"webhook_url":         snap.WebhookURL,
		"event_log_path":      snap.EventLogPath,
	})
}
