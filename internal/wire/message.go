// Package wire decodes and validates the JSON text frames exchanged with the
// ground-control station. All size caps and identifier sanitization for the
// two channels are enforced here, at the boundary, before any field is
// trusted.
package wire

import "main/internal/model"

// Kind is the discriminant field of a wire message.
type Kind string

const (
	KindFrame      Kind = "frame"
	KindDetections Kind = "detections"
	KindError      Kind = "error"
	KindSetMode    Kind = "set_mode"
)

// Message is a validated inbound wire message.
type Message interface {
	Kind() Kind
}

// FrameMessage carries one base64-decoded JPEG payload.
type FrameMessage struct {
	// Payload is the decoded JPEG bytes, already checked against the size cap.
	Payload []byte
}

func (FrameMessage) Kind() Kind { return KindFrame }

// DetectionsMessage carries a replacement detection set. Malformed elements
// are filtered out during decode; Dropped counts them.
type DetectionsMessage struct {
	Detections []model.Detection
	Dropped    int
}

func (DetectionsMessage) Kind() Kind { return KindDetections }

// ErrorMessage is a server-reported channel error.
type ErrorMessage struct {
	Message string
}

func (ErrorMessage) Kind() Kind { return KindError }

type envelope struct {
	Type string `json:"type"`
}

type frameEnvelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

type errorEnvelope struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type setModeEnvelope struct {
	Type string `json:"type"`
	Mode string `json:"mode"`
}
