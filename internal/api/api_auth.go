package api

import (
	"errors"
	"net/http"

	"github.com/dhanyyudi/bmkg-alert/internal/auth"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil || !s.auth.Enabled() {
		s.writeJSON(w, http.StatusOK, map[string]any{"auth_required": false})
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	token, err := s.auth.Login(r.Context(), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("login failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.logger.Info("admin login", "remote", clientIP(r))
	s.writeJSON(w, http.StatusOK, map[string]any{"auth_required": true, "token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.auth != nil {
		s.auth.Logout(bearerToken(r))
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
