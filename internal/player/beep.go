package player

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"

	"github.com/ELSEGuy/silenceplayer/internal/types"
)

// engineRate is the fixed output sample rate. Decoders running at other
// rates are resampled onto it.
const engineRate = beep.SampleRate(44100)

// speakerBufferLen is the speaker buffer duration. Large enough to survive
// scheduler hiccups, small enough that volume changes feel immediate.
const speakerBufferLen = 100 * time.Millisecond

var speakerOnce sync.Once

// BeepPlayer renders ambient tracks through the system's default output.
// MP3 and FLAC decode natively; OPUS, M4A and MP4 go through an FFmpeg
// subprocess producing raw PCM. It is safe for concurrent use.
type BeepPlayer struct {
	ffmpegPath string

	mu       sync.Mutex
	track    types.Track
	streamer beep.StreamCloser
	seeker   beep.StreamSeeker // nil for subprocess-decoded tracks
	ctrl     *beep.Ctrl
	gain     *gainStreamer
	loaded   bool

	savedPath string // track whose position was saved on the last Stop
	savedPos  int    // sample offset to resume from

	finished chan struct{}
}

// NewBeepPlayer creates a player. ffmpegPath may be empty, in which case
// only natively decodable formats load.
func NewBeepPlayer(ffmpegPath string) (*BeepPlayer, error) {
	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(engineRate, engineRate.N(speakerBufferLen))
	})
	if initErr != nil {
		return nil, fmt.Errorf("init speaker: %w", initErr)
	}

	return &BeepPlayer{
		ffmpegPath: ffmpegPath,
		finished:   make(chan struct{}, 1),
	}, nil
}

// Load prepares a track for playback, replacing any current track. When the
// same track was stopped earlier, playback resumes from the saved position.
func (p *BeepPlayer) Load(track types.Track) error {
	if _, err := os.Stat(track.Path); err != nil {
		return fmt.Errorf("%w: %s", types.ErrFileNotFound, track.Path)
	}

	streamer, format, seeker, err := p.decode(track)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.unloadLocked()

	if seeker != nil && track.Path == p.savedPath && p.savedPos > 0 && p.savedPos < seeker.Len() {
		if err := seeker.Seek(p.savedPos); err == nil {
			p.savedPath = ""
			p.savedPos = 0
		}
	}

	var out beep.Streamer = streamer
	if format.SampleRate != engineRate {
		out = beep.Resample(4, format.SampleRate, engineRate, out)
	}

	p.gain = &gainStreamer{streamer: out}
	p.ctrl = &beep.Ctrl{Streamer: p.gain, Paused: true}
	p.streamer = streamer
	p.seeker = seeker
	p.track = track
	p.loaded = true

	speaker.Play(beep.Seq(p.ctrl, beep.Callback(p.signalFinished)))
	return nil
}

// decode opens the track with the decoder matching its format.
func (p *BeepPlayer) decode(track types.Track) (beep.StreamCloser, beep.Format, beep.StreamSeeker, error) {
	switch track.Format {
	case types.FormatMP3, types.FormatFLAC:
		f, err := os.Open(track.Path)
		if err != nil {
			return nil, beep.Format{}, nil, fmt.Errorf("%w: %s", types.ErrFileNotFound, track.Path)
		}
		var (
			s      beep.StreamSeekCloser
			format beep.Format
		)
		if track.Format == types.FormatMP3 {
			s, format, err = mp3.Decode(f)
		} else {
			s, format, err = flac.Decode(f)
		}
		if err != nil {
			_ = f.Close() //nolint:errcheck // Already failing with the decode error
			return nil, beep.Format{}, nil, fmt.Errorf("%w: %s: %v", types.ErrUnsupportedFormat, track.Path, err)
		}
		return s, format, s, nil

	case types.FormatOpus, types.FormatM4A, types.FormatMP4:
		if p.ffmpegPath == "" {
			return nil, beep.Format{}, nil, fmt.Errorf("%w: %s requires FFmpeg", types.ErrUnsupportedFormat, track.Format)
		}
		s, err := newFFmpegStreamer(p.ffmpegPath, track.Path, engineRate)
		if err != nil {
			return nil, beep.Format{}, nil, err
		}
		return s, beep.Format{SampleRate: engineRate, NumChannels: 2, Precision: 4}, nil, nil

	default:
		return nil, beep.Format{}, nil, fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, track.Format)
	}
}

// signalFinished runs on the speaker goroutine when the track ends.
func (p *BeepPlayer) signalFinished() {
	select {
	case p.finished <- struct{}{}:
	default:
	}
}

// Play starts or resumes playback of the loaded track.
func (p *BeepPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
}

// Pause suspends playback without unloading the track.
func (p *BeepPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
}

// SetVolume sets the output gain, 0.0-1.0.
func (p *BeepPlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gain != nil {
		p.gain.SetGain(v)
	}
}

// Stop halts playback and unloads the track. The position of a seekable
// track is remembered so the next Load of the same file resumes there.
func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return
	}
	if p.seeker != nil {
		p.savedPath = p.track.Path
		p.savedPos = p.seeker.Position()
	}
	p.unloadLocked()
}

// unloadLocked tears down the current streamer. Caller must hold p.mu.
func (p *BeepPlayer) unloadLocked() {
	if !p.loaded {
		return
	}
	speaker.Clear()
	if err := p.streamer.Close(); err != nil {
		// Decoder teardown failure leaves nothing actionable.
		_ = err
	}
	p.streamer = nil
	p.seeker = nil
	p.ctrl = nil
	p.gain = nil
	p.track = types.Track{}
	p.loaded = false
}

// TrackFinished signals each time the loaded track plays to its end.
func (p *BeepPlayer) TrackFinished() <-chan struct{} {
	return p.finished
}

// Close releases the audio output.
func (p *BeepPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloadLocked()
	return nil
}

// gainStreamer applies a linear gain to the wrapped streamer. Linear gain
// keeps the fade scheduler's ramp values meaningful end to end.
type gainStreamer struct {
	mu       sync.RWMutex
	streamer beep.Streamer
	gain     float64
}

// SetGain sets the multiplier applied to each sample.
func (g *gainStreamer) SetGain(v float64) {
	g.mu.Lock()
	g.gain = v
	g.mu.Unlock()
}

func (g *gainStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := g.streamer.Stream(samples)
	g.mu.RLock()
	gain := g.gain
	g.mu.RUnlock()
	for i := range samples[:n] {
		samples[i][0] *= gain
		samples[i][1] *= gain
	}
	return n, ok
}

func (g *gainStreamer) Err() error {
	return g.streamer.Err()
}
