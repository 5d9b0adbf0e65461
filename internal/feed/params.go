package feed

import (
	"strings"

	"main/internal/model/enum"
	"main/internal/wire"
)

// Params is the reconnect trigger key of a View. The two channel
// connections are torn down and re-established whenever any field
// changes, surface size included: a resize forces a full
// reconnect-and-resubscribe of both channels.
type Params struct {
	Channel       string
	Mode          enum.Mode
	SurfaceWidth  int
	SurfaceHeight int
}

func (p Params) Equal(o Params) bool {
	return p == o
}

// videoURL and detectionsURL embed the sanitized channel identifier as
// a path segment under the configured endpoint base.
func videoURL(base, channel string) (string, error) {
	return channelURL(base, "video", channel)
}

func detectionsURL(base, channel string) (string, error) {
	return channelURL(base, "detections", channel)
}

func channelURL(base, kind, channel string) (string, error) {
	id, err := wire.SanitizeChannelID(channel)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(base, "/") + "/" + kind + "/" + id, nil
}
