// Package influxdb provides InfluxDB connectivity for ParkPilot Core.
//
// It wraps the official influxdb-client-go v2 library and records the
// navigator's telemetry as two measurements:
//
//	vehicle_position    tags: site, mode          fields: lat, lng, heading, distance_m
//	facility_occupancy  tags: site, facility_id   fields: total, occupied, free
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteFacilityOccupancy("thrissur", "lot_st_thomas", 24, 17, time.Now())
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval). Batch
// failures are delivered to the SetOnError callback; connection and health
// check errors are returned directly.
package influxdb
