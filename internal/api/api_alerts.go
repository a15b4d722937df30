package api

import (
	"net/http"
	"strings"

	"github.com/dhanyyudi/bmkg-alert/internal/config"
	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := types.AlertFilter{
		Limit: parseLimit(r, config.DefaultPaginationLimit, config.MaxActivityLimit),
	}

	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status := types.AlertStatus(strings.ToLower(raw))
		switch status {
		case types.AlertStatusActive, types.AlertStatusExpired, types.AlertStatusCancelled:
			filter.Status = &status
		default:
			s.writeError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
	}
	if raw := q.Get("severity"); raw != "" {
		severity := types.ParseSeverity(raw)
		filter.Severity = &severity
	}
	if raw := q.Get("location_id"); raw != "" {
		filter.LocationID = &raw
	}

	alerts, err := s.store.ListAlerts(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing alerts failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleListActiveAlerts(w http.ResponseWriter, r *http.Request) {
	status := types.AlertStatusActive
	alerts, err := s.store.ListAlerts(r.Context(), types.AlertFilter{
		Status: &status,
		Limit:  parseLimit(r, config.DefaultPaginationLimit, config.MaxActivityLimit),
	})
	if err != nil {
		s.logger.Error("listing active alerts failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleAlertStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetAlertStats(r.Context())
	if err != nil {
		s.logger.Error("computing alert stats failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := s.store.GetAlert(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("getting alert failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get alert")
		return
	}
	if alert == nil {
		s.writeError(w, http.StatusNotFound, "alert not found")
		return
	}

	deliveries, err := s.store.ListDeliveries(r.Context(), alert.ID)
	if err != nil {
		s.logger.Error("listing deliveries failed", "error", err, "alert_id", alert.ID)
		s.writeError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"alert":      alert,
		"deliveries": deliveries,
	})
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, config.DefaultPaginationLimit, config.MaxActivityLimit)
	entries, err := s.store.ListActivity(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing activity failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list activity")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"activity": entries, "count": len(entries)})
}
