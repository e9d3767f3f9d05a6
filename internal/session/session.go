// Package session provides per-process audio session enumeration and the
// filtering rules that decide whether a session counts as real activity.
package session

// AudioSession is a single process's audio output session, produced fresh
// on each poll by the capture provider.
type AudioSession struct {
	ProcessID   int     `json:"process_id"`
	ProcessName string  `json:"process_name"`
	Level       float64 `json:"level"`      // 0 = silent, >0 = producing audio
	Excluded    bool    `json:"excluded"`   // on the user's exclusion list
	Suppressed  bool    `json:"suppressed"` // own output or mirroring target
}

// Provider enumerates the machine's current audio sessions. Implementations
// exist per platform capture mechanism; the engine is agnostic to how
// activity is sensed.
type Provider interface {
	// ListSessions returns the current audio sessions. It fails with
	// types.ErrCaptureUnavailable (possibly wrapped) when the underlying
	// capture mechanism cannot enumerate sessions.
	ListSessions() ([]AudioSession, error)
}
