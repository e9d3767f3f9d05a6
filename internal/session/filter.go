package session

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ELSEGuy/silenceplayer/internal/config"
)

// Filter applies the exclusion list and the mirroring workaround to raw
// per-process session data. Pure classification, no side effects.
type Filter struct {
	ownProcess string // lowercase basename of the running executable
}

// NewFilter returns a Filter that recognizes the current executable as the
// player's own output process.
func NewFilter() *Filter {
	f := &Filter{}
	if exe, err := os.Executable(); err == nil {
		f.ownProcess = strings.ToLower(filepath.Base(exe))
	}
	return f
}

// Classify annotates each session with its excluded/suppressed flags and
// reports whether any remaining, audible session exists, along with the
// process names producing audio.
//
// The mirroring workaround: with the discord fix enabled, a session
// belonging to the player itself or to a mirroring target process is never
// counted as activity even at nonzero level. This keeps the player's own
// ambient output, looped back through a virtual audio cable into a
// voice-chat app, from being misread as foreign activity.
func (f *Filter) Classify(sessions []AudioSession, snap *config.Snapshot) (isRealActivity bool, activeApps []string) {
	for i := range sessions {
		s := &sessions[i]
		name := strings.ToLower(s.ProcessName)

		s.Suppressed = name != "" && name == f.ownProcess
		for _, own := range snap.OwnProcesses {
			if name == strings.ToLower(own) {
				s.Suppressed = true
			}
		}
		if snap.DiscordFixEnabled && !s.Suppressed {
			for _, mirror := range snap.MirrorApps {
				if name == strings.ToLower(mirror) {
					s.Suppressed = true
					break
				}
			}
		}

		s.Excluded = false
		for _, excluded := range snap.ExcludedApps {
			if name == strings.ToLower(excluded) {
				s.Excluded = true
				break
			}
		}

		if s.Excluded || s.Suppressed {
			continue
		}
		if s.Level > snap.PeakThreshold {
			isRealActivity = true
			activeApps = append(activeApps, s.ProcessName)
		}
	}
	return isRealActivity, activeApps
}
