// Package player provides the ambient playback collaborator: a decode and
// output engine behind a small command interface.
package player

import "github.com/ELSEGuy/silenceplayer/internal/types"

// Engine is the playback collaborator consumed by the controller. Commands
// are issued synchronously from the controller's event-handling step;
// track completion is reported asynchronously through TrackFinished.
type Engine interface {
	// Load prepares a track for playback, replacing any current track.
	// Fails with types.ErrFileNotFound or types.ErrUnsupportedFormat.
	Load(track types.Track) error
	// Play starts or resumes playback of the loaded track.
	Play()
	// Pause suspends playback without unloading the track.
	Pause()
	// SetVolume sets the output gain, 0.0-1.0.
	SetVolume(v float64)
	// Stop halts playback and unloads the track, remembering the position
	// for a later resume of the same track.
	Stop()
	// TrackFinished signals each time the loaded track plays to its end.
	TrackFinished() <-chan struct{}
	// Close releases the audio output.
	Close() error
}
