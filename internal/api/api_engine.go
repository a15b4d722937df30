package api

import (
	"context"
	"net/http"
)

func (s *Server) handleEngineStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleEngineStart(w http.ResponseWriter, r *http.Request) {
	if s.engine.Running() {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "already running"})
		return
	}
	// The loop outlives the request, so it must not run on r.Context().
	s.engine.Start(context.Background())
	s.logger.Info("engine started via api")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleEngineStop(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Running() {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "already stopped"})
		return
	}
	s.engine.Stop()
	s.logger.Info("engine stopped via api")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleEngineCheckNow(w http.ResponseWriter, r *http.Request) {
	summary := s.engine.CheckNow(r.Context())
	s.writeJSON(w, http.StatusOK, summary)
}
