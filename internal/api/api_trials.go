package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dhanyyudi/bmkg-alert/internal/config"
	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

type trialRegisterRequest struct {
	TelegramChatID    string `json:"telegram_chat_id"`
	SubdistrictCode   string `json:"subdistrict_code"`
	SubdistrictName   string `json:"subdistrict_name"`
	DistrictName      string `json:"district_name"`
	ProvinceName      string `json:"province_name"`
	SeverityThreshold string `json:"severity_threshold"`
}

func (s *Server) handleTrialRegister(w http.ResponseWriter, r *http.Request) {
	if !s.trialBot.Configured() {
		s.writeError(w, http.StatusServiceUnavailable, "trial subscriptions are not available")
		return
	}

	var req trialRegisterRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	req.TelegramChatID = strings.TrimSpace(req.TelegramChatID)
	if req.TelegramChatID == "" || req.SubdistrictCode == "" || req.SubdistrictName == "" {
		s.writeError(w, http.StatusBadRequest, "telegram_chat_id, subdistrict_code and subdistrict_name are required")
		return
	}
	if req.SeverityThreshold == "" {
		req.SeverityThreshold = "all"
	}

	ip := clientIP(r)
	recent, err := s.store.CountTrialRegistrationsByIP(r.Context(), ip, config.TrialIPRateWindow)
	if err != nil {
		s.logger.Error("trial rate check failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to register trial")
		return
	}
	if recent >= config.TrialIPRateLimit {
		s.writeError(w, http.StatusTooManyRequests, "too many trial registrations from this address, try again later")
		return
	}

	existing, err := s.store.GetActiveTrialByChatID(r.Context(), req.TelegramChatID)
	if err != nil {
		s.logger.Error("trial lookup failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to register trial")
		return
	}
	if existing != nil {
		s.writeError(w, http.StatusConflict, "an active trial already exists for this chat")
		return
	}

	trial := &types.TrialSubscription{
		TelegramChatID:    req.TelegramChatID,
		SubdistrictCode:   req.SubdistrictCode,
		SubdistrictName:   req.SubdistrictName,
		DistrictName:      req.DistrictName,
		ProvinceName:      req.ProvinceName,
		SeverityThreshold: strings.ToLower(req.SeverityThreshold),
		ExpiresAt:         time.Now().UTC().Add(config.TrialDuration),
		IPAddress:         ip,
	}
	if err := s.store.CreateTrial(r.Context(), trial); err != nil {
		s.logger.Error("creating trial failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to register trial")
		return
	}

	welcome := fmt.Sprintf(
		"✅ Trial BMKG Alert aktif untuk wilayah %s.\nAnda akan menerima peringatan dini cuaca selama 24 jam ke depan.",
		trial.SubdistrictName)
	if err := s.trialBot.SendMessage(r.Context(), trial.TelegramChatID, welcome); err != nil {
		// Registration stands even if the confirmation message fails.
		s.logger.Warn("trial welcome message failed", "error", err, "trial_id", trial.ID)
	}

	s.logger.Info("trial registered",
		"trial_id", trial.ID,
		"subdistrict", trial.SubdistrictName,
		"expires_at", trial.ExpiresAt)
	s.writeJSON(w, http.StatusCreated, trial)
}

func (s *Server) handleTrialStatus(w http.ResponseWriter, r *http.Request) {
	chatID := strings.TrimSpace(r.URL.Query().Get("chat_id"))
	if chatID == "" {
		s.writeError(w, http.StatusBadRequest, "chat_id query parameter is required")
		return
	}

	trial, err := s.store.GetActiveTrialByChatID(r.Context(), chatID)
	if err != nil {
		s.logger.Error("trial lookup failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to look up trial")
		return
	}
	if trial == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"active":            true,
		"trial":             trial,
		"remaining_seconds": int64(time.Until(trial.ExpiresAt).Seconds()),
	})
}

func (s *Server) handleTrialCancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID string `json:"chat_id"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	req.ChatID = strings.TrimSpace(req.ChatID)
	if req.ChatID == "" {
		s.writeError(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	trial, err := s.store.GetActiveTrialByChatID(r.Context(), req.ChatID)
	if err != nil {
		s.logger.Error("trial lookup failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to cancel trial")
		return
	}
	if trial == nil {
		s.writeError(w, http.StatusNotFound, "no active trial for this chat")
		return
	}

	cancelled, err := s.store.CancelTrial(r.Context(), trial.ID)
	if err != nil {
		s.logger.Error("cancelling trial failed", "error", err, "trial_id", trial.ID)
		s.writeError(w, http.StatusInternalServerError, "failed to cancel trial")
		return
	}
	if !cancelled {
		s.writeError(w, http.StatusNotFound, "no active trial for this chat")
		return
	}

	if s.trialBot.Configured() {
		notice := "Trial BMKG Alert Anda telah dibatalkan. Terima kasih telah mencoba."
		if err := s.trialBot.SendMessage(r.Context(), req.ChatID, notice); err != nil {
			s.logger.Warn("trial cancel notice failed", "error", err, "trial_id", trial.ID)
		}
	}

	s.logger.Info("trial cancelled", "trial_id", trial.ID)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleTrialBotInfo(w http.ResponseWriter, r *http.Request) {
	if !s.trialBot.Configured() {
		s.writeJSON(w, http.StatusOK, map[string]any{"configured": false})
		return
	}
	username, err := s.trialBot.BotInfo(r.Context())
	if err != nil {
		s.logger.Error("trial bot info failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to reach the Telegram API")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"configured": true, "username": username})
}

func (s *Server) handleTrialTestMessage(w http.ResponseWriter, r *http.Request) {
	if !s.trialBot.Configured() {
		s.writeError(w, http.StatusServiceUnavailable, "trial bot is not configured")
		return
	}

	var req struct {
		ChatID  string `json:"chat_id"`
		Message string `json:"message"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	req.ChatID = strings.TrimSpace(req.ChatID)
	if req.ChatID == "" {
		s.writeError(w, http.StatusBadRequest, "chat_id is required")
		return
	}
	if req.Message == "" {
		req.Message = "🔔 Pesan uji dari BMKG Alert. Bot dapat menghubungi chat ini."
	}

	if err := s.trialBot.SendMessage(r.Context(), req.ChatID, req.Message); err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
