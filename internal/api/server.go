// Package api is Brandy Box's local-only status/trigger surface: a thin
// chi router exposing the reporter's current status/progress and a
// trigger endpoint, with sync-status/sync-completed events pushed over
// a WebSocket hub. The backend itself is a remote HTTP service reached
// over internal/remote; this process never proxies its storage routes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brandstaetter/brandybox/internal/driver"
	"github.com/brandstaetter/brandybox/internal/reporter"
	"github.com/brandstaetter/brandybox/pkg/logging"
)

// Version constants
const (
	Version    = "0.1.0"
	APIVersion = 1
)

// Server is the local status/trigger HTTP API.
type Server struct {
	reporter   *reporter.Reporter
	driver     *driver.Driver
	router     chi.Router
	httpServer *http.Server
	port       int
	hub        *WebSocketHub
	startTime  time.Time
}

// NewServer creates a new API server bound to rep and d.
func NewServer(rep *reporter.Reporter, d *driver.Driver, port int) *Server {
	s := &Server{
		reporter:  rep,
		driver:    d,
		port:      port,
		hub:       NewWebSocketHub(),
		startTime: time.Now(),
	}

	s.setupRouter()
	s.bridgeReporterEvents()
	return s
}

// setupRouter configures the Chi router with all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(SecurityHeadersMiddleware)
	r.Use(CORSMiddleware)
	r.Use(AuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/status", s.handleStatus)
		r.Get("/sync-status", s.handleSyncStatus)
		r.Post("/sync", s.handleTriggerSync)
		r.Get("/ws", s.handleWebSocket)
	})

	s.router = r
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: s.router,
	}

	go s.hub.Run()

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Logger().Info("starting graceful shutdown")

	s.hub.Stop()

	return s.httpServer.Shutdown(ctx)
}

// GetRouter returns the router (for testing)
func (s *Server) GetRouter() chi.Router {
	return s.router
}

// GetHub returns the WebSocket hub
func (s *Server) GetHub() *WebSocketHub {
	return s.hub
}

// bridgeReporterEvents subscribes to the reporter and forwards every
// status change to connected WebSocket clients as sync-status.
func (s *Server) bridgeReporterEvents() {
	ch := s.reporter.Subscribe()
	go func() {
		var lastKind reporter.StatusKind
		for snap := range ch {
			if snap.Status.Kind == lastKind {
				continue
			}
			lastKind = snap.Status.Kind

			s.hub.Broadcast(Event{
				Type: "sync-status",
				Data: SyncStatusPayload{
					Status:  string(snap.Status.Kind),
					Message: snap.Status.Message,
				},
			})
		}
	}()
}

// SyncCompleted implements internal/driver.CompletionSink, pushing
// sync-completed to connected WebSocket clients.
func (s *Server) SyncCompleted(bytesDownloaded, bytesUploaded int64) {
	s.hub.Broadcast(Event{
		Type: "sync-completed",
		Data: SyncCompletedPayload{
			BytesDownloaded: bytesDownloaded,
			BytesUploaded:   bytesUploaded,
		},
	})
}

// handleVersion returns version information
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"version":     Version,
		"api_version": APIVersion,
	})
}

// handleStatus returns server status information
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"version":           Version,
		"api_version":       APIVersion,
		"uptime_seconds":    int64(time.Since(s.startTime).Seconds()),
		"websocket_clients": s.hub.ClientCount(),
	})
}

// handleSyncStatus returns the current reporter snapshot: status,
// message, and in-progress transfer phase/counters.
func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.reporter.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  string(snap.Status.Kind),
		"message": snap.Status.Message,
		"progress": map[string]any{
			"phase":   string(snap.Progress.Phase),
			"current": snap.Progress.Current,
			"total":   snap.Progress.Total,
		},
	})
}

// handleTriggerSync starts one sync cycle in the background.
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	if err := s.driver.Trigger(r.Context()); err != nil {
		respondJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]any{"status": "started"})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
