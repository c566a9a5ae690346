package api

import (
	"encoding/json"
	"net/http"
)

// KeyRequest is the body of POST /vehicle/keys.
type KeyRequest struct {
	Key     string `json:"key"`
	Pressed bool   `json:"pressed"`
}

// handleGetVehicle returns the navigator snapshot.
func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	st, err := s.nav.Snapshot(r.Context())
	if err != nil {
		s.writeNavigatorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleVehicleKey records a key press or release.
func (s *Server) handleVehicleKey(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Key == "" {
		writeBadRequest(w, "key is required")
		return
	}

	var err error
	if req.Pressed {
		err = s.nav.KeyDown(r.Context(), req.Key)
	} else {
		err = s.nav.KeyUp(r.Context(), req.Key)
	}
	if err != nil {
		s.writeNavigatorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStartAutoDrive starts a session towards the target facility.
// Any running session is replaced.
func (s *Server) handleStartAutoDrive(w http.ResponseWriter, r *http.Request) {
	info, err := s.nav.StartAutoDrive(r.Context())
	if err != nil {
		s.writeNavigatorError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// handleCancelAutoDrive stops the running session.
func (s *Server) handleCancelAutoDrive(w http.ResponseWriter, r *http.Request) {
	if err := s.nav.CancelAutoDrive(r.Context()); err != nil {
		s.writeNavigatorError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
