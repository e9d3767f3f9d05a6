// Package playlist holds track ordering and loop policy for ambient playback.
package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ELSEGuy/silenceplayer/internal/config"
	"github.com/ELSEGuy/silenceplayer/internal/types"
)

// Manager selects ambient tracks according to the configured mode. The
// cursor only moves when the playback controller reports a finished track.
// It is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	mode      types.PlaylistMode
	tracks    []types.Track
	cursor    int
	exhausted bool // single_stop/playlist_stop ran to the end
}

// NewManager creates an empty playlist manager.
func NewManager() *Manager {
	return &Manager{mode: types.ModeSingleLoop}
}

// Configure loads the track list for the snapshot's mode: the single
// configured file for single modes, or a folder scan for playlist modes.
// Configuring resets the cursor and the exhausted flag.
func (m *Manager) Configure(snap *config.Snapshot) error {
	tracks, err := resolveTracks(snap)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = snap.Mode
	m.tracks = tracks
	m.cursor = 0
	m.exhausted = false
	return nil
}

// resolveTracks builds the track list for a config snapshot.
func resolveTracks(snap *config.Snapshot) ([]types.Track, error) {
	if snap.Mode.IsPlaylist() {
		return scanFolder(snap.PlaylistFolder)
	}

	if snap.TrackPath == "" {
		return nil, fmt.Errorf("no ambient track configured")
	}
	format, ok := types.FormatForPath(snap.TrackPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, snap.TrackPath)
	}
	return []types.Track{{Path: snap.TrackPath, Format: format}}, nil
}

// scanFolder collects supported audio files from a folder, sorted by name.
func scanFolder(folder string) ([]types.Track, error) {
	if folder == "" {
		return nil, fmt.Errorf("no playlist folder configured")
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read playlist folder: %w", err)
	}

	var tracks []types.Track
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		format, ok := types.FormatForPath(entry.Name())
		if !ok {
			continue
		}
		tracks = append(tracks, types.Track{
			Path:   filepath.Join(folder, entry.Name()),
			Format: format,
		})
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no supported audio files in %s", folder)
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Path < tracks[j].Path })
	return tracks, nil
}

// Next returns the track to play when ambient playback starts, or false
// when the playlist has nothing left to offer (stop signal).
func (m *Manager) Next() (types.Track, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.tracks) == 0 || m.exhausted {
		return types.Track{}, false
	}
	return m.tracks[m.cursor], true
}

// TrackFinished advances the cursor for a track that played to its end and
// returns the following track, or false when playback should stop.
func (m *Manager) TrackFinished() (types.Track, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.tracks) == 0 || m.exhausted {
		return types.Track{}, false
	}

	switch m.mode {
	case types.ModeSingleLoop, types.ModeSongLoop:
		// Same track again, forever.
	case types.ModeSingleStop:
		m.exhausted = true
		return types.Track{}, false
	case types.ModePlaylistLoop:
		m.cursor = (m.cursor + 1) % len(m.tracks)
	case types.ModePlaylistStop:
		m.cursor++
		if m.cursor >= len(m.tracks) {
			m.cursor = 0
			m.exhausted = true
			return types.Track{}, false
		}
	}
	return m.tracks[m.cursor], true
}

// SkipCurrent drops the cursor past a track that failed to load, without
// marking stop modes exhausted. Returns the next candidate, or false once
// every track has been skipped in this pass.
func (m *Manager) SkipCurrent() (types.Track, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.tracks) <= 1 {
		return types.Track{}, false
	}
	m.cursor = (m.cursor + 1) % len(m.tracks)
	return m.tracks[m.cursor], true
}

// Reset rewinds the cursor and clears the exhausted flag.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = 0
	m.exhausted = false
}

// Len returns the number of loaded tracks.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracks)
}
