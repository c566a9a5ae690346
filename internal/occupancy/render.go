package occupancy

// Rect is one slot scaled to the client's container.
type Rect struct {
	Index    int     `json:"index"`
	Left     float64 `json:"left"`
	Top      float64 `json:"top"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Occupied bool    `json:"occupied"`
}

// Render scales every layout slot by containerWidth/referenceWidth and marks
// it from states. A non-positive referenceWidth falls back to
// DefaultReferenceWidth. Slots without a state are free.
//
// The returned slice is always new and covers the whole layout.
func Render(layout Layout, states []SlotState, containerWidth, referenceWidth float64) []Rect {
	if referenceWidth <= 0 {
		referenceWidth = DefaultReferenceWidth
	}
	scale := containerWidth / referenceWidth

	rects := make([]Rect, len(layout.Slots))
	for i, slot := range layout.Slots {
		rects[i] = Rect{
			Index:    i,
			Left:     slot.X * scale,
			Top:      slot.Y * scale,
			Width:    slot.W * scale,
			Height:   slot.H * scale,
			Occupied: i < len(states) && states[i] == Occupied,
		}
	}
	return rects
}
