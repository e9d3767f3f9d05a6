package util

import "os/exec"

// ResolveFFmpegPath returns the path to the FFmpeg binary used for decoding
// formats the native decoders cannot handle. If customPath is set, it is
// validated; otherwise "ffmpeg" is searched in PATH. Returns an empty string
// if FFmpeg is not found.
func ResolveFFmpegPath(customPath string) string {
	if customPath != "" {
		if _, err := exec.LookPath(customPath); err == nil {
			return customPath
		}
		return ""
	}
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ""
	}
	return path
}
