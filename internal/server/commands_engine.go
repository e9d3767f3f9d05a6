package server

// handleMonitoring processes engine/monitoring commands, pausing or resuming
// silence detection.
func (h *CommandHandler) handleMonitoring(cmd WSCommand, send chan<- any) {
	HandleCommand(h, cmd, send, func(req *MonitoringRequest) error {
		h.engine.SetMonitoring(*req.Enabled)
		return nil
	})
}
