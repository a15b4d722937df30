package api

import (
	"errors"
	"net/http"

	"github.com/dhanyyudi/bmkg-alert/internal/store"
	"github.com/dhanyyudi/bmkg-alert/pkg/types"
)

type locationRequest struct {
	Label           string   `json:"label"`
	ProvinceCode    string   `json:"province_code"`
	ProvinceName    string   `json:"province_name"`
	DistrictCode    string   `json:"district_code"`
	DistrictName    string   `json:"district_name"`
	SubdistrictCode string   `json:"subdistrict_code"`
	SubdistrictName string   `json:"subdistrict_name"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.store.ListLocations(r.Context())
	if err != nil {
		s.logger.Error("listing locations failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list locations")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"locations": locations, "count": len(locations)})
}

func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	location, err := s.store.GetLocation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("getting location failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get location")
		return
	}
	if location == nil {
		s.writeError(w, http.StatusNotFound, "location not found")
		return
	}
	s.writeJSON(w, http.StatusOK, location)
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.SubdistrictCode == "" || req.SubdistrictName == "" {
		s.writeError(w, http.StatusBadRequest, "subdistrict_code and subdistrict_name are required")
		return
	}

	location := &types.Location{
		Label:           req.Label,
		ProvinceCode:    req.ProvinceCode,
		ProvinceName:    req.ProvinceName,
		DistrictCode:    req.DistrictCode,
		DistrictName:    req.DistrictName,
		SubdistrictCode: req.SubdistrictCode,
		SubdistrictName: req.SubdistrictName,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Enabled:         true,
	}

	if err := s.store.CreateLocation(r.Context(), location); err != nil {
		if errors.Is(err, store.ErrDuplicateLocation) {
			s.writeError(w, http.StatusConflict, "a location with this subdistrict_code already exists")
			return
		}
		s.logger.Error("creating location failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create location")
		return
	}

	s.logger.Info("location created", "location_id", location.ID, "subdistrict", location.SubdistrictName)
	s.writeJSON(w, http.StatusCreated, location)
}

func (s *Server) handleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label   *string `json:"label"`
		Enabled *bool   `json:"enabled"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	location, err := s.store.UpdateLocation(r.Context(), r.PathValue("id"), req.Label, req.Enabled)
	if err != nil {
		s.logger.Error("updating location failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to update location")
		return
	}
	if location == nil {
		s.writeError(w, http.StatusNotFound, "location not found")
		return
	}
	s.writeJSON(w, http.StatusOK, location)
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteLocation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("deleting location failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete location")
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, "location not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
