package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementVehiclePosition   = "vehicle_position"
	MeasurementFacilityOccupancy = "facility_occupancy"
)

// VehiclePosition is one sample of the simulated vehicle.
type VehiclePosition struct {
	Lat            float64
	Lng            float64
	Heading        float64
	Mode           string
	DistanceMeters float64
}

// WriteVehiclePosition records a vehicle sample.
//
// The write is non-blocking; data is batched and sent asynchronously.
// A no-op when disconnected.
func (c *Client) WriteVehiclePosition(siteID string, p VehiclePosition, at time.Time) {
	c.WritePointWithTime(MeasurementVehiclePosition,
		map[string]string{
			"site": siteID,
			"mode": p.Mode,
		},
		map[string]interface{}{
			"lat":        p.Lat,
			"lng":        p.Lng,
			"heading":    p.Heading,
			"distance_m": p.DistanceMeters,
		},
		at,
	)
}

// WriteFacilityOccupancy records one decoded status poll for a facility.
func (c *Client) WriteFacilityOccupancy(siteID, facilityID string, total, occupied int, at time.Time) {
	c.WritePointWithTime(MeasurementFacilityOccupancy,
		map[string]string{
			"site":        siteID,
			"facility_id": facilityID,
		},
		map[string]interface{}{
			"total":    total,
			"occupied": occupied,
			"free":     total - occupied,
		},
		at,
	)
}

// WritePointWithTime writes a custom point with a specific timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if c == nil || !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
	c.written.Add(1)
}
