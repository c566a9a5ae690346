package occupancy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultReferenceWidth is the pixel width the slot rectangles are drawn in.
const DefaultReferenceWidth = 800.0

// Slot is one parking bay in reference-frame pixels.
type Slot struct {
	Index int     `json:"index"`
	ID    string  `json:"id,omitempty"`
	Label string  `json:"label,omitempty"`
	Type  string  `json:"type,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
}

// Dimensions is the size of the backend's reference image. It is carried
// through for clients; scaling always uses the configured reference width.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Layout is the decoded /api/config payload.
type Layout struct {
	LotID   string      `json:"lot_id,omitempty"`
	LotName string      `json:"lot_name,omitempty"`
	Image   *Dimensions `json:"image_dimensions,omitempty"`
	Slots   []Slot      `json:"slots"`
}

// Len returns the number of slots.
func (l Layout) Len() int {
	return len(l.Slots)
}

type rect struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	W *float64 `json:"w"`
	H *float64 `json:"h"`
}

type rawSlot struct {
	ID          json.RawMessage `json:"id"`
	Label       string          `json:"label"`
	Type        string          `json:"type"`
	Coordinates *rect           `json:"coordinates"`
	rect
}

type rawLayout struct {
	LotID   json.RawMessage `json:"lot_id"`
	LotName string          `json:"lot_name"`
	Image   *Dimensions     `json:"image_dimensions"`
	Slots   []rawSlot       `json:"slots"`
}

// ParseLayout decodes a config payload.
//
// A slot's rectangle may be nested under "coordinates" or given flat on the
// slot itself. A slot missing any of x, y, w, h is rejected.
func ParseLayout(data []byte) (Layout, error) {
	var raw rawLayout
	if err := json.Unmarshal(data, &raw); err != nil {
		return Layout{}, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if raw.Slots == nil {
		return Layout{}, fmt.Errorf("%w: missing slots", ErrInvalidLayout)
	}

	layout := Layout{
		LotID:   scalarString(raw.LotID),
		LotName: raw.LotName,
		Image:   raw.Image,
		Slots:   make([]Slot, 0, len(raw.Slots)),
	}

	for i, rs := range raw.Slots {
		r := rs.rect
		if rs.Coordinates != nil {
			r = *rs.Coordinates
		}
		if r.X == nil || r.Y == nil || r.W == nil || r.H == nil {
			return Layout{}, fmt.Errorf("%w: slot %d missing coordinates", ErrInvalidLayout, i)
		}
		layout.Slots = append(layout.Slots, Slot{
			Index: i,
			ID:    scalarString(rs.ID),
			Label: rs.Label,
			Type:  rs.Type,
			X:     *r.X,
			Y:     *r.Y,
			W:     *r.W,
			H:     *r.H,
		})
	}

	return layout, nil
}

// scalarString renders a JSON string or number as a plain string.
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
