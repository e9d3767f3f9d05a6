// Package events persists engine transitions to a JSON lines file so the
// playback history survives restarts and can be served to clients.
package events

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType identifies an engine transition.
type EventType string

const (
	EventAmbientStarted   EventType = "ambient_started"
	EventAmbientStopped   EventType = "ambient_stopped"
	EventDucked           EventType = "ducked"
	EventRestored         EventType = "restored"
	EventTrackSkipped     EventType = "track_skipped"
	EventMonitorDegraded  EventType = "monitor_degraded"
	EventMonitorRecovered EventType = "monitor_recovered"
	EventConfigReloaded   EventType = "config_reloaded"
)

// Entry is a single logged transition.
type Entry struct {
	Timestamp  time.Time `json:"ts"`
	Event      EventType `json:"event"`
	Track      string    `json:"track,omitempty"`
	Apps       []string  `json:"apps,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Logger writes engine transitions to a JSON lines file.
type Logger struct {
	mu       sync.Mutex
	filePath string
	file     *os.File
	encoder  *json.Encoder
}

// NewLogger opens the log file for appending, creating directories as needed.
func NewLogger(filePath string) (*Logger, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	return &Logger{
		filePath: filePath,
		file:     file,
		encoder:  json.NewEncoder(file),
	}, nil
}

// Log appends an entry to the log file.
func (l *Logger) Log(entry *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	return l.encoder.Encode(entry)
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Path returns the path to the log file.
func (l *Logger) Path() string {
	return l.filePath
}

// ReadLast reads the last n entries from the log file, newest first.
// A missing file yields an empty slice.
func ReadLast(filePath string, n int) ([]Entry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close() //nolint:errcheck // Read-only operation, close error not critical

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	start := 0
	if len(lines) > n {
		start = len(lines) - n
	}
	lines = lines[start:]

	entries := make([]Entry, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		var entry Entry
		if err := json.Unmarshal([]byte(lines[i]), &entry); err != nil {
			continue // Skip malformed lines
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
