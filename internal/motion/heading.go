package motion

import "math"

// Cardinal headings in degrees, clockwise from Up.
const (
	HeadingUp        = 0.0
	HeadingUpRight   = 45.0
	HeadingRight     = 90.0
	HeadingDownRight = 135.0
	HeadingDown      = 180.0
	HeadingDownLeft  = 225.0
	HeadingLeft      = 270.0
	HeadingUpLeft    = 315.0
)

// CardinalHeading returns the heading for a set of held keys.
//
// Single keys map to their cardinal angle, checked in the order Up, Down,
// Left, Right so the last held one wins. A held diagonal pair then overrides
// that, checked in the order Up+Left, Up+Right, Down+Left, Down+Right.
// ok is false when no key is held.
func CardinalHeading(k Keys) (heading float64, ok bool) {
	if !k.Any() {
		return 0, false
	}

	if k.Up {
		heading = HeadingUp
	}
	if k.Down {
		heading = HeadingDown
	}
	if k.Left {
		heading = HeadingLeft
	}
	if k.Right {
		heading = HeadingRight
	}

	if k.Up && k.Left {
		heading = HeadingUpLeft
	}
	if k.Up && k.Right {
		heading = HeadingUpRight
	}
	if k.Down && k.Left {
		heading = HeadingDownLeft
	}
	if k.Down && k.Right {
		heading = HeadingDownRight
	}

	return heading, true
}

// TravelHeading returns the direction of a movement delta in degrees,
// measured from increasing latitude towards increasing longitude.
func TravelHeading(dLat, dLng float64) float64 {
	return math.Atan2(dLng, dLat) * 180 / math.Pi
}
