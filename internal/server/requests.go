package server

// Request types for WebSocket commands with validation tags.
// These types define the expected input for each command and use
// go-playground/validator struct tags for automatic validation.

// --- Detection settings ---

// DetectionUpdateRequest is the request body for detection/update.
type DetectionUpdateRequest struct {
	SilenceSeconds *float64 `json:"silence_seconds" validate:"omitempty,gte=1,lte=3600"`
	PollIntervalMs *int64   `json:"poll_interval_ms" validate:"omitempty,gte=100,lte=10000"`
}

// --- Playback settings ---

// PlaybackUpdateRequest is the request body for playback/update.
type PlaybackUpdateRequest struct {
	Mode           string  `json:"mode" validate:"required,oneof=single_loop single_stop playlist_loop song_loop playlist_stop"`
	TrackPath      string  `json:"track_path" validate:"omitempty,max=4096"`
	PlaylistFolder string  `json:"playlist_folder" validate:"omitempty,max=4096"`
	MaxVolume      float64 `json:"max_volume" validate:"omitempty,gte=0,lte=1"`
	FadeEnabled    bool    `json:"fade_enabled"`
	FadeInMs       int64   `json:"fade_in_ms" validate:"omitempty,gte=0,lte=60000"`
	FadeOutMs      int64   `json:"fade_out_ms" validate:"omitempty,gte=0,lte=60000"`
	DuckLevel      float64 `json:"duck_level" validate:"omitempty,gte=0,lte=1"`
}

// --- Session filter settings ---

// ExcludedAppRequest is the request body for filter/exclude and filter/include.
type ExcludedAppRequest struct {
	Name string `json:"name" validate:"required,max=256"`
}

// DiscordFixRequest is the request body for filter/discord-fix.
type DiscordFixRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// --- Notification settings ---

// WebhookUpdateRequest is the request body for notifications/webhook/update.
type WebhookUpdateRequest struct {
	URL string `json:"url" validate:"omitempty,max=2048"`
}

// EventLogUpdateRequest is the request body for notifications/log/update.
type EventLogUpdateRequest struct {
	Path string `json:"path" validate:"omitempty,max=4096"`
}

// --- Engine control ---

// MonitoringRequest is the request body for engine/monitoring.
type MonitoringRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
