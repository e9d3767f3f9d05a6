// Package main runs the ambient player daemon: it watches the system's audio
// sessions, starts ambient playback after sustained silence and yields again
// when real audio returns.
//
// Usage:
//
//	silenceplayer [-config path/to/config.json]
//
// If -config is not specified, the player looks for config.json in the same
// directory as the binary.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/ELSEGuy/silenceplayer/internal/config"
	"github.com/ELSEGuy/silenceplayer/internal/engine"
	"github.com/ELSEGuy/silenceplayer/internal/monitor"
	"github.com/ELSEGuy/silenceplayer/internal/notify"
	"github.com/ELSEGuy/silenceplayer/internal/player"
	"github.com/ELSEGuy/silenceplayer/internal/playlist"
	"github.com/ELSEGuy/silenceplayer/internal/session"
	"github.com/ELSEGuy/silenceplayer/internal/types"
	"github.com/ELSEGuy/silenceplayer/internal/util"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: config.json next to binary)")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		slog.Info("version info", "version", Version, "commit", Commit, "build_time", BuildTime)
		return
	}

	if *configPath == "" {
		execPath, err := os.Executable()
		if err != nil {
			slog.Error("failed to get executable path", "error", err)
			os.Exit(1)
		}
		*configPath = filepath.Join(filepath.Dir(execPath), "config.json")
	}

	slog.Info("using config file", "path", *configPath)

	cfg := config.New(*configPath)
	if err := cfg.Load(); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// FFmpeg is only needed for formats beep cannot decode natively.
	ffmpegPath := util.ResolveFFmpegPath(cfg.FFmpegPath())
	if ffmpegPath == "" {
		slog.Warn("FFmpeg not found - OPUS/M4A/MP4 tracks will not play",
			"configured_path", cfg.FFmpegPath())
	} else {
		slog.Info("FFmpeg found", "path", ffmpegPath)
	}

	provider := session.NewSystemProvider()
	if !provider.Supported() {
		slog.Warn("session capture not supported on this platform - monitoring degraded",
			"platform", runtime.GOOS)
	}

	beepPlayer, err := player.NewBeepPlayer(ffmpegPath)
	if err != nil {
		slog.Error("failed to initialize audio output", "error", err)
		os.Exit(1)
	}

	tracks := playlist.NewManager()
	notifier := notify.New(cfg)
	eng := engine.New(cfg, beepPlayer, tracks, notifier)
	eng.AttachMonitor(monitor.New(cfg, provider, session.NewFilter(), eng))

	eng.Start()

	// Configure the initial track list. A bad playback config is reported
	// but does not stop the daemon; the list can be fixed over the API.
	if err := eng.Reload(); err != nil {
		slog.Error("initial playlist configuration failed", "error", err)
	}

	srv := NewServer(cfg, eng, provider.Supported())
	httpServer := srv.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, util.ShutdownSignals()...)
	<-sigChan

	slog.Info("shutting down")

	// Stop version checker goroutine
	srv.version.Stop()

	// Shut down HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), types.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	eng.Stop()
	if err := beepPlayer.Close(); err != nil {
		slog.Error("error closing audio output", "error", err)
	}

	slog.Info("shutdown complete")
}
