package motion

import "github.com/nerrad567/parkpilot-core/internal/geo"

// Auto-drive defaults.
const (
	DefaultGain                   = 0.08
	DefaultArrivalThresholdMeters = 10.0
)

// AutoDrive is the proportional homing controller.
type AutoDrive struct {
	// Gain is the fraction of the remaining gap closed per tick, in (0, 1).
	Gain float64

	// ArrivalThresholdMeters ends the approach once the vehicle is closer.
	ArrivalThresholdMeters float64

	// Distance measures the gap in metres. Defaults to geo.Distance.
	Distance func(a, b geo.Position) float64
}

// StepResult is the outcome of one auto-drive tick.
type StepResult struct {
	Position       geo.Position
	Heading        float64
	DistanceMeters float64 // distance measured before moving
	Arrived        bool
}

// Step runs one tick from pos towards target.
//
// If the vehicle is already within the arrival threshold the result has
// Arrived set and Position equal to pos; no movement happens on that tick.
// Otherwise the vehicle moves Gain of the remaining gap on each axis, which
// approaches the target exponentially and never reaches it exactly.
func (a AutoDrive) Step(pos, target geo.Position) StepResult {
	dist := a.distance(pos, target)
	if dist < a.ArrivalThresholdMeters {
		return StepResult{Position: pos, DistanceMeters: dist, Arrived: true}
	}

	dLat := (target.Lat - pos.Lat) * a.Gain
	dLng := (target.Lng - pos.Lng) * a.Gain

	return StepResult{
		Position:       pos.Offset(dLat, dLng),
		Heading:        TravelHeading(dLat, dLng),
		DistanceMeters: dist,
	}
}

func (a AutoDrive) distance(p, q geo.Position) float64 {
	if a.Distance != nil {
		return a.Distance(p, q)
	}
	return geo.Distance(p, q)
}
