package navigator

import (
	"time"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/influxdb"
)

// TelemetryWriter is the part of the InfluxDB client the sink needs.
// *influxdb.Client satisfies it.
type TelemetryWriter interface {
	WriteVehiclePosition(siteID string, p influxdb.VehiclePosition, at time.Time)
	WriteFacilityOccupancy(siteID, facilityID string, total, occupied int, at time.Time)
}

// TelemetrySink records vehicle samples and occupancy polls as time series.
// Vehicle samples are throttled to the telemetry interval; arrival samples
// and occupancy polls are always written.
type TelemetrySink struct {
	w        TelemetryWriter
	siteID   string
	throttle *throttle
}

// NewTelemetrySink creates a telemetry sink.
func NewTelemetrySink(w TelemetryWriter, siteID string, interval time.Duration) *TelemetrySink {
	return &TelemetrySink{
		w:        w,
		siteID:   siteID,
		throttle: newThrottle(interval),
	}
}

func (s *TelemetrySink) VehicleMoved(f VehicleFrame) {
	if !s.throttle.allow(f.At) {
		return
	}
	s.w.WriteVehiclePosition(s.siteID, influxdb.VehiclePosition{
		Lat:            f.Position.Lat,
		Lng:            f.Position.Lng,
		Heading:        f.Heading,
		Mode:           f.Mode.String(),
		DistanceMeters: f.DistanceMeters,
	}, f.At)
}

func (s *TelemetrySink) Arrived(e ArrivalEvent) {
	s.w.WriteVehiclePosition(s.siteID, influxdb.VehiclePosition{
		Lat:            e.Position.Lat,
		Lng:            e.Position.Lng,
		Mode:           "arrived",
		DistanceMeters: e.DistanceMeters,
	}, e.At)
	s.throttle.reset()
}

func (s *TelemetrySink) DetailChanged(f DetailFrame) {
	if f.Summary == nil {
		return
	}
	s.w.WriteFacilityOccupancy(s.siteID, f.Facility.ID, f.Summary.Total, f.Summary.Occupied, f.At)
}

func (s *TelemetrySink) RouteSelected(geo.Route) {}
