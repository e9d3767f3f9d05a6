package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/ELSEGuy/silenceplayer/internal/config"
	"github.com/ELSEGuy/silenceplayer/internal/events"
	"github.com/ELSEGuy/silenceplayer/internal/server"
	"github.com/ELSEGuy/silenceplayer/internal/types"
)

// wsStatusInterval is the periodic status push cadence. One second keeps
// the silence counter visibly ticking in clients.
const wsStatusInterval = 1000 * time.Millisecond

// Server is the HTTP server that exposes the player's control surface.
type Server struct {
	config           *config.Config
	engine           server.EngineControl
	commands         *server.CommandHandler
	version          *VersionChecker
	captureSupported bool
}

// NewServer returns a new Server wired to the given config and engine.
func NewServer(cfg *config.Config, eng server.EngineControl, captureSupported bool) *Server {
	return &Server{
		config:           cfg,
		engine:           eng,
		commands:         server.NewCommandHandler(cfg, eng),
		version:          NewVersionChecker(),
		captureSupported: captureSupported,
	}
}

// handleWebSocket handles bidirectional WebSocket communication for real-time updates.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := server.UpgradeConnection(w, r)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	// Create buffered send channel for thread-safe writes.
	// Only the writer goroutine writes to the connection, preventing race conditions.
	send := make(chan any, 16)
	done := make(chan struct{})
	statusUpdate := make(chan struct{}, 1)

	// Writer goroutine - sole writer to the connection
	go s.runWebSocketWriter(conn, send)

	// Reader goroutine - handles incoming commands
	go s.runWebSocketReader(conn, send, done, statusUpdate)

	s.runWebSocketEventLoop(send, done, statusUpdate)
}

// runWebSocketWriter writes messages from the send channel to the connection.
func (s *Server) runWebSocketWriter(conn server.WebSocketConn, send <-chan any) {
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("WebSocket close error", "error", err)
		}
	}()
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// runWebSocketReader reads commands from the connection and dispatches them.
func (s *Server) runWebSocketReader(conn server.WebSocketConn, send chan<- any, done, statusUpdate chan<- struct{}) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in WebSocket reader", "panic", r)
		}
		close(done)
	}()

	for {
		var cmd server.WSCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		s.commands.Handle(cmd, send, func() {
			select {
			case statusUpdate <- struct{}{}:
			default:
			}
		})
	}
}

// runWebSocketEventLoop pushes status updates until the client disconnects.
func (s *Server) runWebSocketEventLoop(send chan any, done, statusUpdate <-chan struct{}) {
	statusTicker := time.NewTicker(wsStatusInterval)
	defer statusTicker.Stop()

	// trySend attempts to send a message, returning false if done is closed
	trySend := func(msg any) bool {
		select {
		case send <- msg:
			return true
		case <-done:
			return false
		}
	}

	// Send initial status
	if !trySend(s.buildWSStatus()) {
		close(send)
		return
	}

	for {
		select {
		case <-done:
			close(send)
			return
		case <-statusUpdate:
			if !trySend(s.buildWSStatus()) {
				close(send)
				return
			}
		case <-statusTicker.C:
			if !trySend(s.buildWSStatus()) {
				close(send)
				return
			}
		}
	}
}

// buildWSStatus returns the current WebSocket status response.
func (s *Server) buildWSStatus() types.WSStatusResponse {
	cfg := s.config.Snapshot()

	return types.WSStatusResponse{
		Type:              "status",
		Engine:            s.engine.Status(),
		SilenceSeconds:    cfg.SilenceSeconds,
		FadeInMs:          cfg.FadeInMs,
		FadeOutMs:         cfg.FadeOutMs,
		FadeEnabled:       cfg.FadeEnabled,
		DuckLevel:         cfg.DuckLevel,
		MaxVolume:         cfg.MaxVolume,
		PlaylistMode:      cfg.Mode,
		TrackPath:         cfg.TrackPath,
		PlaylistFolder:    cfg.PlaylistFolder,
		ExcludedApps:      cfg.ExcludedApps,
		DiscordFixEnabled: cfg.DiscordFixEnabled,
		MirrorApps:        cfg.MirrorApps,
		WebhookURL:        cfg.WebhookURL,
		EventLogPath:      cfg.EventLogPath,
		CaptureSupported:  s.captureSupported,
		Platform:          runtime.GOOS,
		Version:           s.version.Info(),
	}
}

// SetupRoutes returns an [http.Handler] configured with all application routes.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/status", s.handleAPIStatus)
	mux.HandleFunc("/api/events", s.handleAPIEvents)

	return securityHeaders(mux)
}

// securityHeaders returns middleware that wraps handlers with security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// handleAPIStatus handles GET /api/status with a one-shot status snapshot.
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.buildWSStatus())
}

// handleAPIEvents handles GET /api/events, returning recent engine events.
func (s *Server) handleAPIEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := s.config.Snapshot()
	if cfg.EventLogPath == "" {
		writeJSON(w, http.StatusOK, []events.Entry{})
		return
	}

	entries, err := events.ReadLast(cfg.EventLogPath, server.MaxLogEntries)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Start begins the HTTP server.
// Returns an *http.Server that can be used for graceful shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.config.Snapshot().WebPort)
	slog.Info("starting control server", "addr", addr)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.SetupRoutes(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	return srv
}
