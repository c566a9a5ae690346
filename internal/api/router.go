package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// Vehicle
		r.Get("/vehicle", s.handleGetVehicle)
		r.Post("/vehicle/keys", s.handleVehicleKey)

		// Auto-drive session
		r.Post("/autodrive", s.handleStartAutoDrive)
		r.Delete("/autodrive", s.handleCancelAutoDrive)

		// Facilities
		r.Route("/facilities", func(r chi.Router) {
			r.Get("/", s.handleListFacilities)
			r.Post("/{id}/select", s.handleSelectFacility)
			r.Post("/{id}/detail", s.handleOpenDetail)
		})
		r.Delete("/detail", s.handleCloseDetail)

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// wsPath is the WebSocket route under /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
