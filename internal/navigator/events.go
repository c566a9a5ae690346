package navigator

import (
	"time"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/motion"
	"github.com/nerrad567/parkpilot-core/internal/occupancy"
)

// VehicleFrame is emitted whenever the vehicle moves or changes mode.
type VehicleFrame struct {
	Position       geo.Position `json:"position"`
	Heading        float64      `json:"heading"`
	Mode           motion.Mode  `json:"mode"`
	Recenter       bool         `json:"recenter"`
	TargetID       string       `json:"target_id"`
	DistanceMeters float64      `json:"distance_m"`
	SessionID      string       `json:"session_id,omitempty"`
	At             time.Time    `json:"at"`
}

// ArrivalEvent is emitted once when an auto-drive session reaches its target.
type ArrivalEvent struct {
	SessionID      string       `json:"session_id"`
	Facility       geo.Facility `json:"facility"`
	Position       geo.Position `json:"position"`
	DistanceMeters float64      `json:"distance_m"`
	At             time.Time    `json:"at"`
}

// DetailState is the lifecycle of the facility detail view.
type DetailState string

// Detail view states.
const (
	DetailConnecting DetailState = "connecting"
	DetailLive       DetailState = "live"
	DetailOffline    DetailState = "offline"
	DetailClosed     DetailState = "closed"
)

// Detail view messages.
const (
	msgConnecting = "Connecting..."
	msgOffline    = "Backend Offline - Check Server"
	msgAvailable  = "%d Slots Available"
)

// DetailFrame is a full render of the detail view. Slots and Summary are
// only set once a status poll has succeeded.
type DetailFrame struct {
	Generation     uint64             `json:"generation"`
	Facility       geo.Facility       `json:"facility"`
	State          DetailState        `json:"state"`
	Message        string             `json:"message"`
	LotName        string             `json:"lot_name,omitempty"`
	ContainerWidth float64            `json:"container_width"`
	Slots          []occupancy.Rect   `json:"slots,omitempty"`
	Summary        *occupancy.Summary `json:"summary,omitempty"`
	At             time.Time          `json:"at"`
}

// State is a point-in-time snapshot of the navigator.
type State struct {
	Position       geo.Position        `json:"position"`
	Heading        float64             `json:"heading"`
	Mode           motion.Mode         `json:"mode"`
	Keys           motion.Keys         `json:"keys"`
	Target         geo.Facility        `json:"target"`
	DistanceMeters float64             `json:"distance_m"`
	Session        *motion.SessionInfo `json:"session,omitempty"`
	Route          *geo.Route          `json:"route,omitempty"`
	Detail         *DetailFrame        `json:"detail,omitempty"`
}
