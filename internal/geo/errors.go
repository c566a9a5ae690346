package geo

import "errors"

// Domain-specific errors for geographic operations.
var (
	// ErrInvalidPosition is returned when a coordinate string cannot be parsed.
	ErrInvalidPosition = errors.New("geo: invalid position")

	// ErrUnknownFacility is returned when a facility ID is not in the catalogue.
	ErrUnknownFacility = errors.New("geo: unknown facility")

	// ErrDuplicateFacility is returned when two facilities share an ID.
	ErrDuplicateFacility = errors.New("geo: duplicate facility id")

	// ErrEmptyCatalogue is returned when a catalogue is built with no facilities.
	ErrEmptyCatalogue = errors.New("geo: catalogue has no facilities")
)
