// ParkPilot Core - Parking Navigation Service
//
// This is the main entry point for the ParkPilot Core application.
// ParkPilot drives a simulated vehicle around a map of parking facilities:
//   - Manual arrow-key control and an auto-drive homing loop
//   - Nearest-facility search and route lines
//   - Live slot occupancy polled from the parking backend
//
// Frames are streamed to map clients over WebSocket and, when configured,
// mirrored to MQTT and InfluxDB.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/parkpilot-core/internal/api"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/config"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/logging"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/parkpilot-core/internal/navigator"
	"github.com/nerrad567/parkpilot-core/internal/occupancy"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ParkPilot Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	sinks := navigator.MultiSink{hub}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		sinks = append(sinks, navigator.NewMQTTSink(mqttClient, cfg.Telemetry.Interval, log.Component("mqtt_sink")))
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		sinks = append(sinks, navigator.NewTelemetrySink(influxClient, cfg.Site.ID, cfg.Telemetry.Interval))
	} else {
		log.Info("InfluxDB disabled")
	}

	// Navigator
	opts, err := navigator.OptionsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("building navigator options: %w", err)
	}
	backend := occupancy.NewClient(cfg.Occupancy)
	nav, err := navigator.New(opts, backend, sinks, log.Component("navigator"))
	if err != nil {
		return fmt.Errorf("creating navigator: %w", err)
	}
	log.Info("navigator ready",
		"facilities", len(cfg.Facilities),
		"target", nav.Target().ID,
		"backend", backend.BaseURL(),
	)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	go hub.Run(runCtx)
	go func() {
		if runErr := nav.Run(runCtx); runErr != nil {
			log.Error("navigator stopped", "error", runErr)
		}
	}()
	defer func() {
		stop()
		<-nav.Done()
		log.Info("navigator stopped")
	}()

	// MQTT command intake
	if mqttClient != nil {
		bridge := navigator.NewCommandBridge(nav, log.Component("commands"))
		// #nosec G115 -- QoS validated to 0-2 by config
		if subErr := bridge.Subscribe(mqttClient, byte(cfg.MQTT.QoS)); subErr != nil {
			return fmt.Errorf("subscribing to commands: %w", subErr)
		}
		defer func() {
			if unsubErr := bridge.Unsubscribe(mqttClient); unsubErr != nil {
				log.Warn("error stopping command intake", "error", unsubErr)
			}
		}()
	}

	// API server
	deps := api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log.Component("api"),
		Navigator: nav,
		Hub:       hub,
		Version:   version,
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	if influxClient != nil {
		deps.Telemetry = influxClient
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(runCtx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, server, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server
	// 2. Navigator and its poller
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)

	log.Info("ParkPilot Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PARKPILOT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PARKPILOT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthChecker is implemented by every component checked at startup.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// healthCheck verifies all started components are healthy.
// The MQTT and InfluxDB clients may be nil when disabled.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, server healthChecker, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
