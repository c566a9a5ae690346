package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/motion"
	"github.com/nerrad567/parkpilot-core/internal/navigator"
	"github.com/nerrad567/parkpilot-core/internal/occupancy"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeBadGateway     = "backend_unavailable"
	ErrCodeUnavailable    = "service_unavailable"
	ErrCodeTimeout        = "timeout"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeNavigatorError maps a navigator or backend error onto a response.
func (s *Server) writeNavigatorError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, motion.ErrUnknownKey),
		errors.Is(err, navigator.ErrInvalidCommand):
		writeBadRequest(w, err.Error())
	case errors.Is(err, geo.ErrUnknownFacility):
		writeNotFound(w, err.Error())
	case errors.Is(err, navigator.ErrNoActiveSession),
		errors.Is(err, navigator.ErrDetailClosed):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, occupancy.ErrBackendUnavailable),
		errors.Is(err, occupancy.ErrInvalidLayout):
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
	case errors.Is(err, navigator.ErrNavigatorStopped):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "navigator is not running")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, "request timed out")
	default:
		s.logger.Error("navigator command failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestID(r),
		)
		writeInternalError(w, "internal server error")
	}
}
