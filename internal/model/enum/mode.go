package enum

// Mode is the operating mode of the detection pipeline. The mode string is
// sent verbatim to the detections channel on open and selects the overlay
// palette.
type Mode string

const (
	ModeCattle  Mode = "cattle"
	ModePeople  Mode = "people"
	ModeHunting Mode = "hunting"
)

func (m Mode) IsAvailable() bool {
	switch m {
	case ModeCattle, ModePeople, ModeHunting:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}
