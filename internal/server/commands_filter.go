package server

// handleExcludeApp processes filter/exclude commands.
func (h *CommandHandler) handleExcludeApp(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *ExcludedAppRequest) error {
		return h.cfg.AddExcludedApp(req.Name)
	})
}

// handleIncludeApp processes filter/include commands.
func (h *CommandHandler) handleIncludeApp(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *ExcludedAppRequest) error {
		return h.cfg.RemoveExcludedApp(req.Name)
	})
}

// handleDiscordFix processes filter/discord-fix commands.
func (h *CommandHandler) handleDiscordFix(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *DiscordFixRequest) error {
		return h.cfg.SetDiscordFix(*req.Enabled)
	})
}

// handleFilterGet processes filter/get commands.
func (h *CommandHandler) handleFilterGet(send chan<- any) {
	snap := h.cfg.Snapshot()
	SendSuccess(send, "filter/get", map[string]any{
		"excluded_apps":       snap.ExcludedApps,
		"discord_fix_enabled": snap.DiscordFixEnabled,
		"mirror_apps":         snap.MirrorApps,
	})
}
