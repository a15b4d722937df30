package api

import (
	"net/http"
	"time"

	"github.com/dhanyyudi/bmkg-alert/internal/store"
)

// configExport is the portable settings document produced by the export
// endpoint and accepted by import.
type configExport struct {
	ExportedAt time.Time         `json:"exported_at"`
	Config     map[string]string `json:"config"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	values, err := s.store.GetAllConfig(r.Context())
	if err != nil {
		s.logger.Error("reading config failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read config")
		return
	}
	// Unset keys still show their defaults so the admin UI sees the full set.
	for key, def := range store.DefaultConfig {
		if _, ok := values[key]; !ok {
			values[key] = def
		}
	}
	s.writeJSON(w, http.StatusOK, values)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if !s.decodeBody(w, r, &values) {
		return
	}
	if len(values) == 0 {
		s.writeError(w, http.StatusBadRequest, "no config values provided")
		return
	}

	for key := range values {
		if _, known := store.DefaultConfig[key]; !known {
			s.writeError(w, http.StatusBadRequest, "unknown config key: "+key)
			return
		}
	}

	if err := s.store.SetConfigValues(r.Context(), values); err != nil {
		s.logger.Error("updating config failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to update config")
		return
	}

	s.logger.Info("config updated", "keys", len(values))
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleExportConfig(w http.ResponseWriter, r *http.Request) {
	values, err := s.store.GetAllConfig(r.Context())
	if err != nil {
		s.logger.Error("reading config failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read config")
		return
	}
	for key, def := range store.DefaultConfig {
		if _, ok := values[key]; !ok {
			values[key] = def
		}
	}
	s.writeJSON(w, http.StatusOK, configExport{
		ExportedAt: time.Now().UTC(),
		Config:     values,
	})
}

func (s *Server) handleImportConfig(w http.ResponseWriter, r *http.Request) {
	var doc configExport
	if !s.decodeBody(w, r, &doc) {
		return
	}
	if len(doc.Config) == 0 {
		s.writeError(w, http.StatusBadRequest, "document has no config values")
		return
	}

	// Unknown keys are skipped rather than rejected so exports from newer
	// builds still import.
	values := make(map[string]string, len(doc.Config))
	for key, value := range doc.Config {
		if _, known := store.DefaultConfig[key]; known {
			values[key] = value
		}
	}
	if len(values) == 0 {
		s.writeError(w, http.StatusBadRequest, "document has no recognized config keys")
		return
	}

	if err := s.store.SetConfigValues(r.Context(), values); err != nil {
		s.logger.Error("importing config failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to import config")
		return
	}

	s.logger.Info("config imported", "keys", len(values))
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "imported", "keys": len(values)})
}

func (s *Server) handleResetConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetConfig(r.Context()); err != nil {
		s.logger.Error("resetting config failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to reset config")
		return
	}
	s.logger.Info("config reset to defaults")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
