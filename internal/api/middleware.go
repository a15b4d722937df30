package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// requireAuth rejects mutating requests without a live session token. When no
// password hash is configured the guard is a pass-through (development mode).
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil || !s.auth.Enabled() {
			next(w, r)
			return
		}

		token := bearerToken(r)
		if !s.auth.Validate(token) {
			s.writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	})
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// clientIP resolves the caller's address, preferring X-Forwarded-For when the
// service sits behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client.
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseLimit reads a positive ?limit= query parameter bounded by max,
// defaulting to def when absent or invalid.
func parseLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
