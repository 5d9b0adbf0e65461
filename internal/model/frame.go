package model

import "time"

// Frame is one video frame as received from the wire: the decoded (but not
// yet image-decoded) JPEG payload plus arrival time.
type Frame struct {
	Payload    []byte
	ReceivedAt time.Time
}
