// Package api implements the HTTP REST API and WebSocket server for ParkPilot Core.
//
// This package provides:
//   - REST endpoints for driving the vehicle and inspecting facilities
//   - WebSocket hub that streams navigator frames to map clients
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between map clients and the navigator. Commands flow
// from HTTP handlers into the navigator loop; every frame the loop emits
// reaches the Hub through the navigator.Sink interface and is broadcast to
// the WebSocket clients subscribed to its channel.
//
// # Channels
//
//   - vehicle.moved     every vehicle frame
//   - vehicle.arrived   one event per completed auto-drive
//   - detail.changed    detail view state and rendered slots
//   - route.selected    route line to the selected facility
//
// # Graceful Degradation
//
// The server operates without MQTT or InfluxDB. Only /metrics reports their
// absence.
package api
