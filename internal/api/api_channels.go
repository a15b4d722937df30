package api

import (
	"encoding/json"
	"net/http"

	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

var validChannelTypes = map[types.ChannelType]bool{
	types.ChannelTelegram: true,
	types.ChannelDiscord:  true,
	types.ChannelSlack:    true,
	types.ChannelEmail:    true,
	types.ChannelWebhook:  true,
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.ListChannels(r.Context())
	if err != nil {
		s.logger.Error("listing channels failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list channels")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"channels": channels, "count": len(channels)})
}

func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := s.store.GetChannel(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("getting channel failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get channel")
		return
	}
	if channel == nil {
		s.writeError(w, http.StatusNotFound, "channel not found")
		return
	}
	s.writeJSON(w, http.StatusOK, channel)
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChannelType types.ChannelType `json:"channel_type"`
		Config      json.RawMessage   `json:"config"`
		Enabled     *bool             `json:"enabled"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !validChannelTypes[req.ChannelType] {
		s.writeError(w, http.StatusBadRequest, "unknown channel_type")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	channel := &types.NotificationChannel{
		ChannelType: req.ChannelType,
		Enabled:     enabled,
		Config:      req.Config,
	}

	if err := s.store.CreateChannel(r.Context(), channel); err != nil {
		s.logger.Error("creating channel failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create channel")
		return
	}

	s.logger.Info("channel created", "channel_id", channel.ID, "channel_type", channel.ChannelType)
	s.writeJSON(w, http.StatusCreated, channel)
}

func (s *Server) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool           `json:"enabled"`
		Config  json.RawMessage `json:"config"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	channel, err := s.store.UpdateChannel(r.Context(), r.PathValue("id"), req.Enabled, req.Config)
	if err != nil {
		s.logger.Error("updating channel failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to update channel")
		return
	}
	if channel == nil {
		s.writeError(w, http.StatusNotFound, "channel not found")
		return
	}
	s.writeJSON(w, http.StatusOK, channel)
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteChannel(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("deleting channel failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete channel")
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, "channel not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleTestChannel sends a test message through the channel's sender without
// touching the delivery log.
func (s *Server) handleTestChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := s.store.GetChannel(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("getting channel failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get channel")
		return
	}
	if channel == nil {
		s.writeError(w, http.StatusNotFound, "channel not found")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	// Body is optional for this endpoint.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Message == "" {
		req.Message = "🔔 Pesan uji dari BMKG Alert. Kanal ini terkonfigurasi dengan benar."
	}

	if err := s.dispatcher.SendRaw(r.Context(), *channel, req.Message); err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
