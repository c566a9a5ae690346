package motion

// DefaultStepDegrees is the manual displacement per held key per frame,
// about 1.2 m of latitude.
const DefaultStepDegrees = 0.000012

// Displacement is the result of one manual frame.
type Displacement struct {
	DLat    float64
	DLng    float64
	Heading float64
}

// ManualStep computes one animation frame of manual movement.
//
// Each held key adds step along its axis. Diagonal movement is the sum of
// both axes and is deliberately not normalised, so it covers sqrt(2) times
// the ground of axial movement. Opposing keys cancel on their axis but
// still count as movement.
//
// moved is false when no key is held; the caller must then leave position
// and heading untouched and emit nothing.
func ManualStep(k Keys, step float64) (d Displacement, moved bool) {
	heading, ok := CardinalHeading(k)
	if !ok {
		return Displacement{}, false
	}

	if k.Up {
		d.DLat += step
	}
	if k.Down {
		d.DLat -= step
	}
	if k.Left {
		d.DLng -= step
	}
	if k.Right {
		d.DLng += step
	}
	d.Heading = heading

	return d, true
}
