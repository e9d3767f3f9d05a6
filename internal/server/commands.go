package server

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/ELSEGuy/silenceplayer/internal/config"
	"github.com/ELSEGuy/silenceplayer/internal/types"
)

// MaxLogEntries is the maximum number of event log entries to return.
const MaxLogEntries = 100

// WSCommand is a command received from a WebSocket client.
type WSCommand struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EngineControl is the engine surface the command handler drives.
type EngineControl interface {
	SetMonitoring(enabled bool)
	StopAmbient()
	Reload() error
	Status() types.EngineStatus
}

// CommandHandler processes WebSocket commands.
type CommandHandler struct {
	cfg    *config.Config
	engine EngineControl
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(cfg *config.Config, eng EngineControl) *CommandHandler {
	return &CommandHandler{
		cfg:    cfg,
		engine: eng,
	}
}

// Handle processes a WebSocket command and performs the requested action.
// Commands use slash-style format: namespace/action (e.g., "playback/update",
// "notifications/webhook/test").
func (h *CommandHandler) Handle(cmd WSCommand, send chan<- any, triggerStatusUpdate func()) {
	parts := strings.SplitN(cmd.Type, "/", 3)
	namespace := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	subaction := ""
	if len(parts) > 2 {
		subaction = parts[2]
	}

	switch namespace {
	case "detection":
		h.handleDetection(action, cmd, send)
	case "playback":
		h.handlePlayback(action, cmd, send)
	case "filter":
		h.handleFilter(action, cmd, send)
	case "notifications":
		h.handleNotifications(action, subaction, cmd, send)
	case "engine":
		h.handleEngine(action, cmd, send)
	case "config":
		h.handleConfig(action, send)
	case "status":
		h.handleStatus(action, send)
	default:
		slog.Warn("unknown WebSocket command", "type", cmd.Type)
	}

	triggerStatusUpdate()
}

// --- Namespace handlers ---

// handleDetection routes detection/* commands
func (h *CommandHandler) handleDetection(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "update":
		h.handleDetectionUpdate(cmd, send)
	case "get":
		h.handleDetectionGet(send)
	default:
		slog.Warn("unknown detection action", "action", action)
	}
}

// handlePlayback routes playback/* commands
func (h *CommandHandler) handlePlayback(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "update":
		h.handlePlaybackUpdate(cmd, send)
	case "get":
		h.handlePlaybackGet(send)
	default:
		slog.Warn("unknown playback action", "action", action)
	}
}

// handleFilter routes filter/* commands
func (h *CommandHandler) handleFilter(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "exclude":
		h.handleExcludeApp(cmd, send)
	case "include":
		h.handleIncludeApp(cmd, send)
	case "discord-fix":
		h.handleDiscordFix(cmd, send)
	case "get":
		h.handleFilterGet(send)
	default:
		slog.Warn("unknown filter action", "action", action)
	}
}

// handleNotifications routes notifications/*/* commands
func (h *CommandHandler) handleNotifications(action, subaction string, cmd WSCommand, send chan<- any) {
	switch action {
	case "webhook":
		switch subaction {
		case "update":
			h.handleWebhookUpdate(cmd, send)
		case "test":
			h.handleWebhookTest(cmd, send)
		case "get":
			h.handleWebhookGet(send)
		default:
			slog.Warn("unknown webhook action", "subaction", subaction)
		}
	case "log":
		switch subaction {
		case "update":
			h.handleEventLogUpdate(cmd, send)
		case "view":
			h.handleEventLogView(cmd, send)
		case "get":
			h.handleEventLogGet(send)
		default:
			slog.Warn("unknown log action", "subaction", subaction)
		}
	default:
		slog.Warn("unknown notifications action", "action", action)
	}
}

// handleEngine routes engine/* commands
func (h *CommandHandler) handleEngine(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "monitoring":
		h.handleMonitoring(cmd, send)
	case "stop":
		h.engine.StopAmbient()
		SendSuccess(send, cmd.Type, nil)
	case "reload":
		if err := h.engine.Reload(); err != nil {
			SendError(send, cmd.Type, err)
			return
		}
		SendSuccess(send, cmd.Type, nil)
	default:
		slog.Warn("unknown engine action", "action", action)
	}
}

// handleConfig routes config/* commands
func (h *CommandHandler) handleConfig(action string, send chan<- any) {
	switch action {
	case "get":
		h.handleConfigGet(send)
	default:
		slog.Warn("unknown config action", "action", action)
	}
}

// handleStatus routes status/* commands
func (h *CommandHandler) handleStatus(action string, send chan<- any) {
	switch action {
	case "get":
		// Status is sent automatically, but explicit get triggers immediate update
		slog.Debug("status/get received, status update will be triggered")
	default:
		slog.Warn("unknown status action", "action", action)
	}
}
