package occupancy

import "errors"

var (
	// ErrBackendUnavailable is returned when the backend cannot be reached
	// or answers with a non-2xx status.
	ErrBackendUnavailable = errors.New("occupancy: backend unavailable")

	// ErrInvalidLayout is returned when the config payload cannot be decoded.
	ErrInvalidLayout = errors.New("occupancy: invalid slot layout")

	// ErrInvalidStatus is returned when the status payload cannot be decoded
	// or has no status_string.
	ErrInvalidStatus = errors.New("occupancy: invalid status")
)
