// Package api provides the admin HTTP surface.
//
// # Endpoints
//
// Locations:
//   - GET    /api/v1/locations - List monitored locations
//   - POST   /api/v1/locations - Create location
//   - GET    /api/v1/locations/{id} - Get location
//   - PUT    /api/v1/locations/{id} - Update label/enabled
//   - DELETE /api/v1/locations/{id} - Delete location
//
// Channels:
//   - GET    /api/v1/channels - List notification channels
//   - POST   /api/v1/channels - Create channel
//   - GET    /api/v1/channels/{id} - Get channel
//   - PUT    /api/v1/channels/{id} - Update enabled/config
//   - DELETE /api/v1/channels/{id} - Delete channel
//   - POST   /api/v1/channels/{id}/test - Send a test message
//
// Alerts:
//   - GET /api/v1/alerts - List alerts (status/severity/location filters)
//   - GET /api/v1/alerts/active - List active alerts
//   - GET /api/v1/alerts/stats - Dashboard counters
//   - GET /api/v1/alerts/{id} - Get alert with deliveries
//   - GET /api/v1/activity - Activity log
//
// Config:
//   - GET  /api/v1/config - Full runtime config
//   - PUT  /api/v1/config - Update keys
//   - GET  /api/v1/config/export - Export as JSON document
//   - POST /api/v1/config/import - Import a JSON document
//   - POST /api/v1/config/reset - Restore defaults
//
// Engine:
//   - GET  /api/v1/engine/status - Scheduling state
//   - POST /api/v1/engine/start - Start the poll loop
//   - POST /api/v1/engine/stop - Stop the poll loop
//   - POST /api/v1/engine/check-now - Run one cycle synchronously
//
// Wilayah (BMKG region lookup proxy):
//   - GET /api/v1/wilayah/search - Search administrative areas
//   - GET /api/v1/wilayah/provinces - Province list
//
// Trials:
//   - POST /api/v1/trials/register - Register a 24h trial
//   - GET  /api/v1/trials/status - Trial status by chat_id
//   - POST /api/v1/trials/cancel - Cancel a trial
//   - GET  /api/v1/trials/bot-info - System bot username
//   - POST /api/v1/trials/test-message - Send a test message to a chat
//
// Auth and health:
//   - POST /api/v1/auth/login - Admin login (bearer token)
//   - POST /api/v1/auth/logout - Revoke token
//   - GET  /api/v1/health - Liveness with process metrics
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/dhanyyudi/bmkg-alert/internal/auth"
	"github.com/dhanyyudi/bmkg-alert/internal/engine"
	"github.com/dhanyyudi/bmkg-alert/internal/notify"
	"github.com/dhanyyudi/bmkg-alert/internal/store"
	"github.com/dhanyyudi/bmkg-alert/internal/upstream"
)

// Server is the admin HTTP server.
type Server struct {
	store      *store.Store
	engine     *engine.Engine
	dispatcher *notify.Dispatcher
	auth       *auth.Authenticator
	trialBot   *notify.SystemTelegram
	upstream   *upstream.Client
	logger     *slog.Logger
	mux        *http.ServeMux

	corsOrigin string
	startTime  time.Time
}

// NewServer creates the admin API server.
func NewServer(st *store.Store, eng *engine.Engine, dispatcher *notify.Dispatcher, authenticator *auth.Authenticator, trialBot *notify.SystemTelegram, bmkg *upstream.Client, corsOrigin string, logger *slog.Logger) *Server {
	s := &Server{
		store:      st,
		engine:     eng,
		dispatcher: dispatcher,
		auth:       authenticator,
		trialBot:   trialBot,
		upstream:   bmkg,
		logger:     logger.With("component", "api"),
		mux:        http.NewServeMux(),
		corsOrigin: corsOrigin,
		startTime:  time.Now(),
	}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	start := time.Now()
	s.mux.ServeHTTP(w, r)
	s.logger.Debug("request",
		"method", r.Method,
		"path", r.URL.Path,
		"duration", time.Since(start))
}

func (s *Server) registerRoutes() {
	// Open routes.
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)

	// Read routes stay open; the admin UI dashboard works without a login.
	s.mux.HandleFunc("GET /api/v1/locations", s.handleListLocations)
	s.mux.HandleFunc("GET /api/v1/locations/{id}", s.handleGetLocation)
	s.mux.HandleFunc("GET /api/v1/channels", s.handleListChannels)
	s.mux.HandleFunc("GET /api/v1/channels/{id}", s.handleGetChannel)
	s.mux.HandleFunc("GET /api/v1/alerts", s.handleListAlerts)
	s.mux.HandleFunc("GET /api/v1/alerts/active", s.handleListActiveAlerts)
	s.mux.HandleFunc("GET /api/v1/alerts/stats", s.handleAlertStats)
	s.mux.HandleFunc("GET /api/v1/alerts/{id}", s.handleGetAlert)
	s.mux.HandleFunc("GET /api/v1/activity", s.handleListActivity)
	s.mux.HandleFunc("GET /api/v1/config", s.handleGetConfig)
	s.mux.HandleFunc("GET /api/v1/config/export", s.handleExportConfig)
	s.mux.HandleFunc("GET /api/v1/engine/status", s.handleEngineStatus)
	s.mux.HandleFunc("GET /api/v1/wilayah/search", s.handleSearchWilayah)
	s.mux.HandleFunc("GET /api/v1/wilayah/provinces", s.handleListProvinces)

	// Trial self-service routes are open by design.
	s.mux.HandleFunc("POST /api/v1/trials/register", s.handleTrialRegister)
	s.mux.HandleFunc("GET /api/v1/trials/status", s.handleTrialStatus)
	s.mux.HandleFunc("POST /api/v1/trials/cancel", s.handleTrialCancel)
	s.mux.HandleFunc("GET /api/v1/trials/bot-info", s.handleTrialBotInfo)
	s.mux.HandleFunc("POST /api/v1/trials/test-message", s.handleTrialTestMessage)

	// Mutating admin routes require a session when auth is configured.
	s.mux.Handle("POST /api/v1/locations", s.requireAuth(s.handleCreateLocation))
	s.mux.Handle("PUT /api/v1/locations/{id}", s.requireAuth(s.handleUpdateLocation))
	s.mux.Handle("DELETE /api/v1/locations/{id}", s.requireAuth(s.handleDeleteLocation))
	s.mux.Handle("POST /api/v1/channels", s.requireAuth(s.handleCreateChannel))
	s.mux.Handle("PUT /api/v1/channels/{id}", s.requireAuth(s.handleUpdateChannel))
	s.mux.Handle("DELETE /api/v1/channels/{id}", s.requireAuth(s.handleDeleteChannel))
	s.mux.Handle("POST /api/v1/channels/{id}/test", s.requireAuth(s.handleTestChannel))
	s.mux.Handle("PUT /api/v1/config", s.requireAuth(s.handleUpdateConfig))
	s.mux.Handle("POST /api/v1/config/import", s.requireAuth(s.handleImportConfig))
	s.mux.Handle("POST /api/v1/config/reset", s.requireAuth(s.handleResetConfig))
	s.mux.Handle("POST /api/v1/engine/start", s.requireAuth(s.handleEngineStart))
	s.mux.Handle("POST /api/v1/engine/stop", s.requireAuth(s.handleEngineStop))
	s.mux.Handle("POST /api/v1/engine/check-now", s.requireAuth(s.handleEngineCheckNow))
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// =============================================================================
// HEALTH
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":         "ok",
		"time":           time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"engine_running": s.engine.Running(),
	}

	if err := s.store.Ping(r.Context()); err != nil {
		health["status"] = "degraded"
		health["database"] = "unreachable"
	} else {
		health["database"] = "ok"
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			health["memory_mb"] = float64(mem.RSS) / (1024 * 1024)
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			health["cpu_percent"] = cpu
		}
	}

	status := http.StatusOK
	if health["status"] != "ok" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}
