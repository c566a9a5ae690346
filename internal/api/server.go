// Package api provides the HTTP REST API and WebSocket server for ParkPilot Core.
//
// It exposes the navigator's commands (keys, auto-drive, facility selection,
// detail view) and streams its frames to map clients.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/config"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/parkpilot-core/internal/motion"
	"github.com/nerrad567/parkpilot-core/internal/navigator"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Navigator is the part of *navigator.Navigator the API drives.
type Navigator interface {
	KeyDown(ctx context.Context, code string) error
	KeyUp(ctx context.Context, code string) error
	StartAutoDrive(ctx context.Context) (motion.SessionInfo, error)
	CancelAutoDrive(ctx context.Context) error
	FindParking(ctx context.Context) ([]geo.FacilityDistance, error)
	SelectFacility(ctx context.Context, facilityID string) (geo.Route, error)
	OpenDetail(ctx context.Context, facilityID string, containerWidth float64) error
	CloseDetail(ctx context.Context) error
	Snapshot(ctx context.Context) (navigator.State, error)
}

// ConnectionChecker reports whether an optional backing service is up.
// *mqtt.Client satisfies it.
type ConnectionChecker interface {
	IsConnected() bool
}

// TelemetryReporter exposes the InfluxDB writer's counters.
// *influxdb.Client satisfies it.
type TelemetryReporter interface {
	ConnectionChecker
	Stats() influxdb.Stats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Navigator Navigator
	MQTT      ConnectionChecker // optional, reported by /metrics
	Telemetry TelemetryReporter // optional, reported by /metrics
	Hub       *Hub              // If set, the server uses this hub instead of creating its own
	Version   string
}

// Server is the HTTP API server for ParkPilot Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	logger      *logging.Logger
	nav         Navigator
	mqtt        ConnectionChecker
	telemetry   TelemetryReporter
	version     string
	startTime   time.Time
	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, navigator)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Navigator == nil {
		return nil, fmt.Errorf("navigator is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		nav:       deps.Navigator,
		mqtt:      deps.MQTT,
		telemetry: deps.Telemetry,
		version:   deps.Version,
		startTime: time.Now(),
	}

	// The navigator sink is built before the server, so main usually
	// injects the hub.
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub if none was injected, and
// launches the HTTP listener in a background goroutine. The server can be
// stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
