package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/parkpilot-core/internal/geo"
)

// Config is the root configuration structure for ParkPilot Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Vehicle    VehicleConfig    `yaml:"vehicle"`
	Facilities []FacilityConfig `yaml:"facilities"`
	Navigation NavigationConfig `yaml:"navigation"`
	Occupancy  OccupancyConfig  `yaml:"occupancy"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SiteConfig contains deployment identification.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// LocationConfig contains a geographic coordinate in decimal degrees.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// VehicleConfig describes the simulated vehicle.
type VehicleConfig struct {
	// Start is where the vehicle is placed when the service boots.
	Start LocationConfig `yaml:"start"`
}

// FacilityConfig describes one parking facility shown on the map.
type FacilityConfig struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	Location LocationConfig `yaml:"location"`
}

// NavigationConfig contains the motion controller tuning.
type NavigationConfig struct {
	// FrameInterval is the animation-frame period of the manual controller.
	FrameInterval time.Duration `yaml:"frame_interval"`

	// AutoDriveInterval is the tick period of the auto-drive homing loop.
	AutoDriveInterval time.Duration `yaml:"autodrive_interval"`

	// StepDegrees is the per-frame displacement per held key, in degrees (~1.2m).
	StepDegrees float64 `yaml:"step_degrees"`

	// Gain is the fraction of the remaining gap covered per auto-drive tick.
	// Must be in (0, 1).
	Gain float64 `yaml:"gain"`

	// ArrivalThresholdMeters ends an auto-drive session once the vehicle is closer.
	ArrivalThresholdMeters float64 `yaml:"arrival_threshold_m"`

	// TargetFacility is the facility ID used by auto-drive and the distance display.
	// Empty means the first configured facility.
	TargetFacility string `yaml:"target_facility"`
}

// OccupancyConfig contains the parking backend and grid rendering settings.
type OccupancyConfig struct {
	BackendURL     string        `yaml:"backend_url"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ReferenceWidth is the pixel width the slot layout was authored against.
	ReferenceWidth float64 `yaml:"reference_width"`

	// ContainerWidth is the default overlay width when the client does not send one.
	ContainerWidth float64 `yaml:"container_width"`

	// OccupiedCodes lists the status characters that mark a slot as occupied.
	OccupiedCodes string `yaml:"occupied_codes"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// TelemetryConfig controls how often vehicle frames leave the process
// through MQTT and InfluxDB. WebSocket clients always get every frame.
type TelemetryConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
// Used when Output is "file".
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PARKPILOT_SECTION_KEY
// For example: PARKPILOT_OCCUPANCY_BACKEND_URL, PARKPILOT_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// The facility list matches the Thrissur demo deployment.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "ParkPilot",
		},
		Vehicle: VehicleConfig{
			Start: LocationConfig{Latitude: 10.5215, Longitude: 76.2165},
		},
		Facilities: []FacilityConfig{
			{ID: "lot_st_thomas", Name: "St. Thomas College", Location: LocationConfig{Latitude: 10.5222, Longitude: 76.2177}},
			{ID: "lot_jubilee", Name: "Jubilee Park", Location: LocationConfig{Latitude: 10.5230, Longitude: 76.2185}},
			{ID: "lot_city_mall", Name: "City Mall Parking", Location: LocationConfig{Latitude: 10.5210, Longitude: 76.2155}},
			{ID: "lot_bus_stand", Name: "Bus Stand Lot", Location: LocationConfig{Latitude: 10.5205, Longitude: 76.2170}},
			{ID: "lot_railway", Name: "Railway Parking", Location: LocationConfig{Latitude: 10.5240, Longitude: 76.2160}},
		},
		Navigation: NavigationConfig{
			FrameInterval:          16 * time.Millisecond,
			AutoDriveInterval:      16 * time.Millisecond,
			StepDegrees:            0.000012,
			Gain:                   0.08,
			ArrivalThresholdMeters: 10,
		},
		Occupancy: OccupancyConfig{
			BackendURL:     "http://localhost:8000",
			PollInterval:   time.Second,
			RequestTimeout: 900 * time.Millisecond,
			ReferenceWidth: 800,
			ContainerWidth: 800,
			OccupiedCodes:  "1CSB",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "parkpilot-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Telemetry: TelemetryConfig{
			Interval: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				Path:       "./logs/parkpilot.log",
				MaxSize:    50,
				MaxBackups: 5,
				MaxAge:     28,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PARKPILOT_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Occupancy backend
	if v := os.Getenv("PARKPILOT_OCCUPANCY_BACKEND_URL"); v != "" {
		cfg.Occupancy.BackendURL = v
	}

	// Vehicle start as "lat,lng"; malformed values are ignored
	if v := os.Getenv("PARKPILOT_VEHICLE_START"); v != "" {
		if p, err := geo.ParsePosition(v); err == nil {
			cfg.Vehicle.Start = LocationConfig{Latitude: p.Lat, Longitude: p.Lng}
		}
	}

	// Navigation
	if v := os.Getenv("PARKPILOT_NAVIGATION_TARGET_FACILITY"); v != "" {
		cfg.Navigation.TargetFacility = v
	}

	// MQTT
	if v := os.Getenv("PARKPILOT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PARKPILOT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PARKPILOT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("PARKPILOT_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("PARKPILOT_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("PARKPILOT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("PARKPILOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Facilities
	if len(c.Facilities) == 0 {
		errs = append(errs, "at least one facility is required")
	}
	seen := make(map[string]struct{}, len(c.Facilities))
	for i, f := range c.Facilities {
		if f.ID == "" {
			errs = append(errs, fmt.Sprintf("facilities[%d].id is required", i))
			continue
		}
		if _, dup := seen[f.ID]; dup {
			errs = append(errs, fmt.Sprintf("facilities[%d].id %q is duplicated", i, f.ID))
		}
		seen[f.ID] = struct{}{}
	}
	if t := c.Navigation.TargetFacility; t != "" {
		if _, ok := seen[t]; !ok {
			errs = append(errs, fmt.Sprintf("navigation.target_facility %q is not a configured facility", t))
		}
	}

	// Navigation
	if c.Navigation.FrameInterval <= 0 {
		errs = append(errs, "navigation.frame_interval must be positive")
	}
	if c.Navigation.AutoDriveInterval <= 0 {
		errs = append(errs, "navigation.autodrive_interval must be positive")
	}
	if c.Navigation.StepDegrees <= 0 {
		errs = append(errs, "navigation.step_degrees must be positive")
	}
	if c.Navigation.Gain <= 0 || c.Navigation.Gain >= 1 {
		errs = append(errs, "navigation.gain must be between 0 and 1 (exclusive)")
	}
	if c.Navigation.ArrivalThresholdMeters <= 0 {
		errs = append(errs, "navigation.arrival_threshold_m must be positive")
	}

	// Occupancy
	if c.Occupancy.BackendURL == "" {
		errs = append(errs, "occupancy.backend_url is required")
	}
	if c.Occupancy.PollInterval <= 0 {
		errs = append(errs, "occupancy.poll_interval must be positive")
	}
	if c.Occupancy.ReferenceWidth <= 0 {
		errs = append(errs, "occupancy.reference_width must be positive")
	}
	if c.Occupancy.OccupiedCodes == "" {
		errs = append(errs, "occupancy.occupied_codes must list at least one code")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if strings.EqualFold(c.Logging.Output, "file") && c.Logging.File.Path == "" {
		errs = append(errs, "logging.file.path is required when logging.output is file")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// TargetFacilityID returns the facility used for auto-drive and the distance display.
func (c *Config) TargetFacilityID() string {
	if c.Navigation.TargetFacility != "" {
		return c.Navigation.TargetFacility
	}
	if len(c.Facilities) > 0 {
		return c.Facilities[0].ID
	}
	return ""
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
