// Package logging configures the slog logger shared by every ParkPilot
// component.
//
// Entries are JSON by default or text for local runs, and can go to
// stdout, stderr or a lumberjack-rotated file:
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "file"
//	  file:
//	    path: "./logs/parkpilot.log"
//	    max_size: 50
//	    max_backups: 5
//	    max_age: 28
//
// Long-lived components take a child logger:
//
//	log := logging.New(cfg.Logging, version)
//	nav, err := navigator.New(opts, client, sink, log.Component("navigator"))
package logging
