package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleListFacilities lists facilities nearest-first.
func (s *Server) handleListFacilities(w http.ResponseWriter, r *http.Request) {
	list, err := s.nav.FindParking(r.Context())
	if err != nil {
		s.writeNavigatorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"facilities": list,
		"count":      len(list),
	})
}

// handleSelectFacility draws the route line to a facility.
func (s *Server) handleSelectFacility(w http.ResponseWriter, r *http.Request) {
	route, err := s.nav.SelectFacility(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeNavigatorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// handleOpenDetail opens the detail view and waits for the slot layout.
// Live updates arrive on the detail.changed channel.
func (s *Server) handleOpenDetail(w http.ResponseWriter, r *http.Request) {
	var width float64
	if v := r.URL.Query().Get("width"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "width must be a non-negative number")
			return
		}
		width = parsed
	}

	if err := s.nav.OpenDetail(r.Context(), chi.URLParam(r, "id"), width); err != nil {
		s.writeNavigatorError(w, r, err)
		return
	}

	st, err := s.nav.Snapshot(r.Context())
	if err != nil {
		s.writeNavigatorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Detail)
}

// handleCloseDetail closes the detail view. Closing when none is open succeeds.
func (s *Server) handleCloseDetail(w http.ResponseWriter, r *http.Request) {
	if err := s.nav.CloseDetail(r.Context()); err != nil {
		s.writeNavigatorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
