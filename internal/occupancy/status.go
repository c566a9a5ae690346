package occupancy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultOccupiedCodes are the status characters that mark a slot taken.
const DefaultOccupiedCodes = "1CSB"

// SlotState is the decoded state of one slot.
type SlotState int

// Slot states.
const (
	Free SlotState = iota
	Occupied
)

// String returns the state name.
func (s SlotState) String() string {
	if s == Occupied {
		return "occupied"
	}
	return "free"
}

// MarshalText encodes the state by name.
func (s SlotState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is the decoded /api/status payload.
type Status struct {
	LotID        string `json:"lot_id,omitempty"`
	StatusString string `json:"status_string"`
}

// ParseStatus decodes a status payload. A body without status_string is
// an error.
func ParseStatus(data []byte) (Status, error) {
	var raw struct {
		LotID        json.RawMessage `json:"lot_id"`
		StatusString *string         `json:"status_string"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Status{}, fmt.Errorf("%w: %w", ErrInvalidStatus, err)
	}
	if raw.StatusString == nil {
		return Status{}, fmt.Errorf("%w: missing status_string", ErrInvalidStatus)
	}
	return Status{LotID: scalarString(raw.LotID), StatusString: *raw.StatusString}, nil
}

// DecodeStatus maps a status string onto n slots.
//
// Character i of the string is slot i, counted in runes. A character in codes marks the slot
// Occupied; anything else is Free. Slots beyond the end of the string are
// Free and characters beyond n are ignored. Empty codes falls back to
// DefaultOccupiedCodes.
func DecodeStatus(status string, n int, codes string) []SlotState {
	if codes == "" {
		codes = DefaultOccupiedCodes
	}
	if n < 0 {
		n = 0
	}

	states := make([]SlotState, n)
	i := 0
	for _, r := range status {
		if i >= n {
			break
		}
		if strings.ContainsRune(codes, r) {
			states[i] = Occupied
		}
		i++
	}
	return states
}

// Summary is the occupied/free tally over a layout.
type Summary struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
	Free     int `json:"free"`
}

// Counts tallies decoded states. Occupied + Free always equals Total.
func Counts(states []SlotState) Summary {
	s := Summary{Total: len(states)}
	for _, st := range states {
		if st == Occupied {
			s.Occupied++
		}
	}
	s.Free = s.Total - s.Occupied
	return s
}
