package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Position is a geographic coordinate in decimal degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts the position to an orb point (longitude first).
func (p Position) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// Offset returns the position moved by the given deltas in degrees.
func (p Position) Offset(dLat, dLng float64) Position {
	return Position{Lat: p.Lat + dLat, Lng: p.Lng + dLng}
}

// String formats the position as "lat,lng" with six decimals.
func (p Position) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// ParsePosition parses a "lat,lng" string such as "10.5215,76.2165".
func ParsePosition(input string) (Position, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, input)
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, input)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Position{}, fmt.Errorf("%w: %q out of range", ErrInvalidPosition, input)
	}

	return Position{Lat: lat, Lng: lng}, nil
}

// EarthRadius is the mean Earth radius in metres used for distances. Web
// map clients measure with this radius, so arrival and the distance display
// agree with what they draw.
const EarthRadius = 6371000.0

// Distance returns the great-circle distance between two positions in
// metres on a sphere of EarthRadius.
func Distance(a, b Position) float64 {
	// haversine distance is linear in the radius; orb uses the WGS84
	// equatorial radius
	return geo.DistanceHaversine(a.Point(), b.Point()) * EarthRadius / orb.EarthRadius
}
