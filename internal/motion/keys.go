package motion

import (
	"fmt"
	"strings"
)

// Key is one of the four direction keys.
type Key int

// Direction keys.
const (
	KeyUp Key = iota + 1
	KeyDown
	KeyLeft
	KeyRight
)

// String returns the DOM key code for the key.
func (k Key) String() string {
	switch k {
	case KeyUp:
		return "ArrowUp"
	case KeyDown:
		return "ArrowDown"
	case KeyLeft:
		return "ArrowLeft"
	case KeyRight:
		return "ArrowRight"
	default:
		return fmt.Sprintf("Key(%d)", int(k))
	}
}

// ParseKey accepts DOM key codes ("ArrowUp") and bare names ("up"),
// case-insensitively.
func ParseKey(code string) (Key, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(code), "Arrow")) {
	case "up", "arrowup":
		return KeyUp, nil
	case "down", "arrowdown":
		return KeyDown, nil
	case "left", "arrowleft":
		return KeyLeft, nil
	case "right", "arrowright":
		return KeyRight, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, code)
	}
}

// Keys is the set of direction keys currently held.
type Keys struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Set records a key press or release.
func (k *Keys) Set(key Key, pressed bool) {
	switch key {
	case KeyUp:
		k.Up = pressed
	case KeyDown:
		k.Down = pressed
	case KeyLeft:
		k.Left = pressed
	case KeyRight:
		k.Right = pressed
	}
}

// Any reports whether at least one key is held.
func (k Keys) Any() bool {
	return k.Up || k.Down || k.Left || k.Right
}
