package model

import "math"

// BBox is an axis-aligned bounding box [x1, y1, x2, y2] in frame-pixel
// coordinates.
type BBox [4]float64

// Valid reports whether every component is finite and the box has positive
// area.
func (b BBox) Valid() bool {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b[2] > b[0] && b[3] > b[1]
}

func (b BBox) Width() float64  { return b[2] - b[0] }
func (b BBox) Height() float64 { return b[3] - b[1] }

// Detection is one server-computed object detection.
type Detection struct {
	ID         string  `json:"id,omitempty"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	BBox       BBox    `json:"bbox,omitempty"`
}

// Valid applies the element-wise shape and range checks. An invalid entry is
// filtered out of its batch, never drawn.
func (d Detection) Valid() bool {
	if d.Confidence < 0 || d.Confidence > 1 || math.IsNaN(d.Confidence) {
		return false
	}
	return d.BBox.Valid()
}

// DetectionSet is an ordered batch of detections. Each valid detections
// message replaces the previous set wholesale; there is no incremental merge
// and no sequence number.
type DetectionSet struct {
	Detections []Detection
}
