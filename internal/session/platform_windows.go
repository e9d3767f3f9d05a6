//go:build windows

package session

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
)

func getPlatformConfig() platformConfig {
	return platformConfig{
		Command:   []string{"SoundVolumeView.exe", "/sjson", ""},
		Parse:     parseSoundVolumeView,
		Supported: true,
	}
}

// svvItem is the subset of SoundVolumeView's JSON export we consume.
type svvItem struct {
	Name        string `json:"Name"`
	Type        string `json:"Type"`
	Direction   string `json:"Direction"`
	ProcessPath string `json:"Process Path"`
	ProcessID   string `json:"Process ID"`
	PeakValue   string `json:"Peak Value"`
}

// parseSoundVolumeView maps application render sessions to sessions, using
// the reported peak meter percentage as the activity level.
func parseSoundVolumeView(output []byte) ([]AudioSession, error) {
	var items []svvItem
	if err := json.Unmarshal(output, &items); err != nil {
		return nil, err
	}

	var sessions []AudioSession
	for _, it := range items {
		if it.Type != "Application" || it.Direction != "Render" {
			continue
		}

		name := strings.ToLower(filepath.Base(it.ProcessPath))
		if name == "" || name == "." {
			name = strings.ToLower(it.Name)
		}
		pid, _ := strconv.Atoi(it.ProcessID)

		sessions = append(sessions, AudioSession{
			ProcessID:   pid,
			ProcessName: name,
			Level:       parsePercent(it.PeakValue),
		})
	}
	return sessions, nil
}

// parsePercent converts a "12.3%" style meter reading to a 0.0-1.0 level.
func parsePercent(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v / 100
}
