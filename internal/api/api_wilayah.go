package api

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

// Region lookups proxy the BMKG wilayah API so the admin UI can resolve
// subdistrict codes when creating locations.

func (s *Server) handleSearchWilayah(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(query) < 2 {
		s.writeError(w, http.StatusBadRequest, "q must be at least 2 characters")
		return
	}

	result, err := s.upstream.SearchWilayah(r.Context(), query)
	if err != nil {
		s.logger.Error("wilayah search failed", "query", query, "error", err)
		s.writeError(w, http.StatusBadGateway, "region search failed")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListProvinces(w http.ResponseWriter, r *http.Request) {
	result, err := s.upstream.ListProvinces(r.Context())
	if err != nil {
		s.logger.Error("province list failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "province lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
