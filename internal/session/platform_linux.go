//go:build linux

package session

import (
	"encoding/json"
	"strconv"
)

func getPlatformConfig() platformConfig {
	return platformConfig{
		Command:   []string{"pactl", "--format=json", "list", "sink-inputs"},
		Parse:     parsePactlSinkInputs,
		Supported: true,
	}
}

// pactlSinkInput is the subset of pactl's sink-input JSON we consume.
// PipeWire's pactl shim emits the same shape.
type pactlSinkInput struct {
	Index      int               `json:"index"`
	Corked     bool              `json:"corked"`
	Mute       bool              `json:"mute"`
	Properties map[string]string `json:"properties"`
}

// parsePactlSinkInputs maps sink-inputs to sessions. PulseAudio exposes no
// per-stream peak meter over the CLI, so an uncorked, unmuted stream counts
// as fully audible and a corked or muted one as silent.
func parsePactlSinkInputs(output []byte) ([]AudioSession, error) {
	var inputs []pactlSinkInput
	if err := json.Unmarshal(output, &inputs); err != nil {
		return nil, err
	}

	sessions := make([]AudioSession, 0, len(inputs))
	for _, in := range inputs {
		name := in.Properties["application.process.binary"]
		if name == "" {
			name = in.Properties["application.name"]
		}
		pid, _ := strconv.Atoi(in.Properties["application.process.id"])

		level := 1.0
		if in.Corked || in.Mute {
			level = 0
		}

		sessions = append(sessions, AudioSession{
			ProcessID:   pid,
			ProcessName: name,
			Level:       level,
		})
	}
	return sessions, nil
}
