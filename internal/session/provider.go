package session

import (
	"fmt"
	"os/exec"

	"github.com/ELSEGuy/silenceplayer/internal/types"
)

// platformConfig defines platform-specific session enumeration.
type platformConfig struct {
	// Command lists the machine's audio sessions in a parseable format.
	Command []string

	// Parse converts the command's output into sessions.
	Parse func(output []byte) ([]AudioSession, error)

	// Supported indicates whether this platform can enumerate per-process
	// sessions at all.
	Supported bool
}

// SystemProvider enumerates audio sessions through the platform's session
// tool (PulseAudio/PipeWire on Linux, SoundVolumeView on Windows).
type SystemProvider struct {
	cfg platformConfig
}

// NewSystemProvider returns a Provider for the current platform.
func NewSystemProvider() *SystemProvider {
	return &SystemProvider{cfg: getPlatformConfig()}
}

// Supported reports whether the current platform can enumerate sessions.
func (p *SystemProvider) Supported() bool {
	return p.cfg.Supported
}

// ListSessions runs the platform session tool and parses its output.
func (p *SystemProvider) ListSessions() ([]AudioSession, error) {
	if !p.cfg.Supported {
		return nil, fmt.Errorf("%w: no session enumeration on this platform", types.ErrCaptureUnavailable)
	}

	out, err := exec.Command(p.cfg.Command[0], p.cfg.Command[1:]...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrCaptureUnavailable, p.cfg.Command[0], err)
	}

	sessions, err := p.cfg.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s output: %v", types.ErrCaptureUnavailable, p.cfg.Command[0], err)
	}
	return sessions, nil
}
