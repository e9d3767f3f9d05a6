package server

import (
	"fmt"

	"github.com/ELSEGuy/silenceplayer/internal/events"
	"github.com/ELSEGuy/silenceplayer/internal/notify"
)

// handleWebhookUpdate processes notifications/webhook/update commands.
func (h *CommandHandler) handleWebhookUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *WebhookUpdateRequest) error {
		snap := h.cfg.Snapshot()
		return h.cfg.SetNotifications(req.URL, snap.EventLogPath)
	})
}

// handleWebhookTest processes notifications/webhook/test commands. Delivery
// runs async so a slow endpoint never stalls the command loop.
func (h *CommandHandler) handleWebhookTest(cmd WSCommand, send chan<- any) {
	snap := h.cfg.Snapshot()
	HandleActionAsync(cmd, send, func() (any, error) {
		return nil, notify.SendTestWebhook(snap.WebhookURL)
	})
}

// handleWebhookGet processes notifications/webhook/get commands.
func (h *CommandHandler) handleWebhookGet(send chan<- any) {
	snap := h.cfg.Snapshot()
	SendSuccess(send, "notifications/webhook/get", map[string]any{
		"url": snap.WebhookURL,
	})
}

// handleEventLogUpdate processes notifications/log/update commands.
func (h *CommandHandler) handleEventLogUpdate(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *EventLogUpdateRequest) error {
		snap := h.cfg.Snapshot()
		return h.cfg.SetNotifications(snap.WebhookURL, req.Path)
	})
}

// handleEventLogView processes notifications/log/view commands, returning the
// most recent engine events, newest first.
func (h *CommandHandler) handleEventLogView(cmd WSCommand, send chan<- any) {
	snap := h.cfg.Snapshot()
	if snap.EventLogPath == "" {
		SendError(send, cmd.Type, fmt.Errorf("event log not configured"))
		return
	}

	entries, err := events.ReadLast(snap.EventLogPath, MaxLogEntries)
	if err != nil {
		SendError(send, cmd.Type, err)
		return
	}
	SendSuccess(send, cmd.Type, entries)
}

// handleEventLogGet processes notifications/log/get commands.
func (h *CommandHandler) handleEventLogGet(send chan<- any) {
	snap := h.cfg.Snapshot()
	SendSuccess(send, "notifications/log/get", map[string]any{
		"path": snap.EventLogPath,
	})
}
