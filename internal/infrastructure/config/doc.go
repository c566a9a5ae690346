// Package config loads ParkPilot Core settings from YAML.
//
// A file such as configs/config.yaml supplies the vehicle start point, the
// facility catalogue, controller tuning, the occupancy backend and the
// optional MQTT and InfluxDB outputs. PARKPILOT_* environment variables
// override the file, which keeps the broker password and InfluxDB token
// out of it:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return fmt.Errorf("loading config: %w", err)
//	}
//
// Load applies defaults and then validates, so a returned Config is ready
// to use.
package config
