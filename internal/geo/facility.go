package geo

import (
	"fmt"
	"sort"
)

// Facility is a named parking location. Facilities are immutable once the
// catalogue is built.
type Facility struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Position Position `json:"position"`
}

// FacilityDistance pairs a facility with its distance from some origin.
type FacilityDistance struct {
	Facility
	DistanceMeters float64 `json:"distance_m"`
}

// Catalogue is the ordered, read-only set of facilities known at startup.
type Catalogue struct {
	ordered []Facility
	byID    map[string]int
}

// NewCatalogue builds a catalogue, preserving the given order.
//
// Returns ErrEmptyCatalogue for an empty list and ErrDuplicateFacility
// when two entries share an ID.
func NewCatalogue(facilities []Facility) (*Catalogue, error) {
	if len(facilities) == 0 {
		return nil, ErrEmptyCatalogue
	}

	c := &Catalogue{
		ordered: make([]Facility, len(facilities)),
		byID:    make(map[string]int, len(facilities)),
	}
	copy(c.ordered, facilities)

	for i, f := range c.ordered {
		if _, dup := c.byID[f.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFacility, f.ID)
		}
		c.byID[f.ID] = i
	}
	return c, nil
}

// Get returns the facility with the given ID.
func (c *Catalogue) Get(id string) (Facility, error) {
	i, ok := c.byID[id]
	if !ok {
		return Facility{}, fmt.Errorf("%w: %q", ErrUnknownFacility, id)
	}
	return c.ordered[i], nil
}

// First returns the first facility in catalogue order.
func (c *Catalogue) First() Facility {
	return c.ordered[0]
}

// All returns a copy of the facilities in catalogue order.
func (c *Catalogue) All() []Facility {
	out := make([]Facility, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Len returns the number of facilities.
func (c *Catalogue) Len() int {
	return len(c.ordered)
}

// ByDistance returns every facility sorted nearest-first from origin.
// Ties keep catalogue order.
func (c *Catalogue) ByDistance(origin Position) []FacilityDistance {
	out := make([]FacilityDistance, len(c.ordered))
	for i, f := range c.ordered {
		out[i] = FacilityDistance{Facility: f, DistanceMeters: Distance(origin, f.Position)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMeters < out[j].DistanceMeters
	})
	return out
}
