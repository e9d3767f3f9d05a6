package events

import (
	"path/filepath"
	"testing"
)

func TestLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	entries := []Entry{
		{Event: EventAmbientStarted, Track: "rain.mp3", DurationMs: 30000},
		{Event: EventDucked, Track: "rain.mp3"},
		{Event: EventAmbientStopped, Track: "rain.mp3", Apps: []string{"spotify.exe"}},
	}
	for i := range entries {
		if err := logger.Log(&entries[i]); err != nil {
			t.Fatalf("log entry %d: %v", i, err)
		}
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadLast(path, 10)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	// Newest first.
	if got[0].Event != EventAmbientStopped || got[2].Event != EventAmbientStarted {
		t.Fatalf("unexpected order: %s ... %s", got[0].Event, got[2].Event)
	}
	if got[0].Apps[0] != "spotify.exe" {
		t.Fatalf("apps = %v", got[0].Apps)
	}
	if got[2].Timestamp.IsZero() {
		t.Fatal("timestamp not stamped on write")
	}
}

func TestReadLastLimitsAndSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	logger, err := NewLogger(path)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := logger.Log(&Entry{Event: EventConfigReloaded}); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	if _, err := logger.file.WriteString("not json\n"); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadLast(path, 3)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	// The garbage line is within the window and skipped.
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
}

func TestReadLastMissingFile(t *testing.T) {
	got, err := ReadLast(filepath.Join(t.TempDir(), "missing.jsonl"), 10)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d entries from missing file", len(got))
	}
}
