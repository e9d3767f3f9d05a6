package player

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"

	"github.com/faiface/beep"

	"github.com/ELSEGuy/silenceplayer/internal/types"
	"github.com/ELSEGuy/silenceplayer/internal/util"
)

// bytesPerFrame is one stereo frame of 32-bit float PCM.
const bytesPerFrame = 8

// ffmpegStreamer decodes a track through an FFmpeg subprocess emitting raw
// stereo f32le PCM at the engine rate. Not seekable; resume positions are
// only kept for natively decoded tracks.
type ffmpegStreamer struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr *bytes.Buffer
	err    error
	done   bool
}

// newFFmpegStreamer starts the decoder process for the given file.
func newFFmpegStreamer(ffmpegPath, path string, rate beep.SampleRate) (*ffmpegStreamer, error) {
	cmd := exec.Command(ffmpegPath,
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "2",
		"-ar", fmt.Sprint(int(rate)),
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, util.WrapError("open decoder pipe", err)
	}

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", types.ErrUnsupportedFormat, err)
	}

	return &ffmpegStreamer{
		cmd:    cmd,
		stdout: stdout,
		reader: bufio.NewReaderSize(stdout, 64*1024),
		stderr: &stderrBuf,
	}, nil
}

func (s *ffmpegStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.done {
		return 0, false
	}

	buf := make([]byte, len(samples)*bytesPerFrame)
	n, err := io.ReadFull(s.reader, buf)
	frames := n / bytesPerFrame

	for i := 0; i < frames; i++ {
		off := i * bytesPerFrame
		l := math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
		r := math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4:]))
		samples[i][0] = float64(l)
		samples[i][1] = float64(r)
	}

	if err != nil {
		s.done = true
		if err != io.EOF && err != io.ErrUnexpectedEOF {
			s.err = err
			_ = s.cmd.Wait() //nolint:errcheck // Read error already captured
		} else if waitErr := s.cmd.Wait(); waitErr != nil {
			if msg := util.ExtractLastError(s.stderr.String()); msg != "" {
				s.err = fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, msg)
			} else {
				s.err = fmt.Errorf("%w: %v", types.ErrUnsupportedFormat, waitErr)
			}
		}
		return frames, frames > 0
	}
	return frames, true
}

func (s *ffmpegStreamer) Err() error {
	return s.err
}

// Close terminates the decoder process. Safe after EOF.
func (s *ffmpegStreamer) Close() error {
	if err := s.stdout.Close(); err != nil {
		_ = err
	}
	if !s.done {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill() //nolint:errcheck // Process may already have exited
		}
		_ = s.cmd.Wait() //nolint:errcheck // Exit status irrelevant after kill
		s.done = true
	}
	return nil
}
