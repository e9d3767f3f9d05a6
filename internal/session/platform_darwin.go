//go:build darwin

package session

// macOS exposes no per-process output metering without a loopback driver,
// so session enumeration reports capture as unavailable and the engine runs
// degraded until a custom Provider is wired in.
func getPlatformConfig() platformConfig {
	return platformConfig{Supported: false}
}
