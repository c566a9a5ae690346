package motion

import "errors"

var (
	// ErrUnknownKey is returned when a key code is not a direction key.
	ErrUnknownKey = errors.New("motion: unknown key")
)
