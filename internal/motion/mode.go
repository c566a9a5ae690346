package motion

// Mode says which controller currently owns the vehicle position.
//
// Transitions:
//
//	Idle        -> Manual       a frame with keys held
//	Manual      -> Idle         a frame with no keys held
//	Idle/Manual -> AutoDriving  auto-drive started
//	AutoDriving -> Idle         arrival or cancellation
//
// While AutoDriving, held keys are tracked but not applied.
type Mode int

// Modes.
const (
	ModeIdle Mode = iota
	ModeManual
	ModeAutoDriving
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeManual:
		return "manual"
	case ModeAutoDriving:
		return "auto_driving"
	default:
		return "unknown"
	}
}

// MarshalText encodes the mode by name for JSON payloads.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// AllowsManual reports whether the manual controller may move the vehicle.
func (m Mode) AllowsManual() bool {
	return m != ModeAutoDriving
}
