package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Route is the straight guide line drawn from the vehicle to a facility.
// No path finding is involved.
type Route struct {
	FacilityID     string   `json:"facility_id"`
	From           Position `json:"from"`
	To             Position `json:"to"`
	DistanceMeters float64  `json:"distance_m"`
}

// NewRoute builds the route line from a position to a facility.
func NewRoute(from Position, to Facility) Route {
	return Route{
		FacilityID:     to.ID,
		From:           from,
		To:             to.Position,
		DistanceMeters: Distance(from, to.Position),
	}
}

// LineString returns the route as a two-point orb line.
func (r Route) LineString() orb.LineString {
	return orb.LineString{r.From.Point(), r.To.Point()}
}

// GeoJSON encodes the route as a GeoJSON Feature so map clients can add it
// as a layer directly.
func (r Route) GeoJSON() ([]byte, error) {
	f := geojson.NewFeature(r.LineString())
	f.Properties["facility_id"] = r.FacilityID
	f.Properties["distance_m"] = r.DistanceMeters
	return f.MarshalJSON()
}
