// Package motion implements the two controllers that move the simulated
// vehicle and the mode state machine that keeps them apart.
//
// The manual controller turns the set of held arrow keys into a fixed
// per-frame displacement and a cardinal or diagonal heading. The auto-drive
// controller is a proportional homing loop: every tick it closes a fixed
// fraction of the remaining latitude/longitude gap to the target and stops
// once the great-circle distance drops below the arrival threshold.
//
// Both controllers are pure step functions. Ownership of the position and
// the timers lives in the navigator package, which calls them from a single
// goroutine.
//
// # Heading conventions
//
// The two controllers report heading differently and both are kept:
//
//   - CardinalHeading maps held keys to 0/90/180/270 and the diagonals
//     45/135/225/315 (Up is 0, clockwise).
//   - TravelHeading is atan2(dLng, dLat) in degrees, so 0 points along
//     increasing latitude and values fall in (-180, 180].
package motion
