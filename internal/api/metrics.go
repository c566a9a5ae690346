package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	MQTT          MQTTMetrics     `json:"mqtt"`
	InfluxDB      InfluxMetrics   `json:"influxdb"`
	Vehicle       *VehicleMetrics `json:"vehicle,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Enabled    bool   `json:"enabled"`
	Connected  bool   `json:"connected"`
	Reconnects uint64 `json:"reconnects"`
}

// InfluxMetrics contains telemetry writer statistics.
type InfluxMetrics struct {
	Enabled       bool   `json:"enabled"`
	Connected     bool   `json:"connected"`
	PointsWritten uint64 `json:"points_written"`
	WriteErrors   uint64 `json:"write_errors"`
}

// reconnectCounter is implemented by *mqtt.Client.
type reconnectCounter interface {
	Reconnects() uint64
}

// VehicleMetrics summarises the navigator state.
type VehicleMetrics struct {
	Mode             string  `json:"mode"`
	TargetID         string  `json:"target_id"`
	DistanceMeters   float64 `json:"distance_m"`
	AutoDriveActive  bool    `json:"autodrive_active"`
	DetailFacilityID string  `json:"detail_facility_id,omitempty"`
	DetailState      string  `json:"detail_state,omitempty"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	}

	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
	}

	if s.mqtt != nil {
		metrics.MQTT = MQTTMetrics{
			Enabled:   true,
			Connected: s.mqtt.IsConnected(),
		}
		if rc, ok := s.mqtt.(reconnectCounter); ok {
			metrics.MQTT.Reconnects = rc.Reconnects()
		}
	}

	if s.telemetry != nil {
		stats := s.telemetry.Stats()
		metrics.InfluxDB = InfluxMetrics{
			Enabled:       true,
			Connected:     s.telemetry.IsConnected(),
			PointsWritten: stats.PointsWritten,
			WriteErrors:   stats.WriteErrors,
		}
	}

	// A stopped navigator leaves the vehicle block out rather than failing
	// the whole response.
	if st, err := s.nav.Snapshot(r.Context()); err == nil {
		v := &VehicleMetrics{
			Mode:            st.Mode.String(),
			TargetID:        st.Target.ID,
			DistanceMeters:  st.DistanceMeters,
			AutoDriveActive: st.Session != nil,
		}
		if st.Detail != nil {
			v.DetailFacilityID = st.Detail.Facility.ID
			v.DetailState = string(st.Detail.State)
		}
		metrics.Vehicle = v
	}

	writeJSON(w, http.StatusOK, metrics)
}
