package wire

import (
	"strings"

	"github.com/yanun0323/errors"

	"main/pkg/exception"
)

const (
	// MaxFramePayload is the hard cap on a decoded frame payload.
	MaxFramePayload = 10 << 20
	// MaxChannelIDLen caps a channel identifier before it is embedded as a
	// URL path segment.
	MaxChannelIDLen = 64
	// MaxImageDim bounds decoded image width and height.
	MaxImageDim = 10000
)

// SanitizeChannelID strips everything outside [A-Za-z0-9_-] from id and caps
// its length. Channel identifiers come from external collaborators and are
// embedded into endpoint URLs, so they never reach the dialer unsanitized.
func SanitizeChannelID(id string) (string, error) {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if !isAllowedChannelRune(r) {
			continue
		}
		b.WriteRune(r)
		if b.Len() >= MaxChannelIDLen {
			break
		}
	}
	if b.Len() == 0 {
		return "", errors.Wrap(exception.ErrBadChannelID, "empty after sanitization").
			With("raw", id)
	}
	return b.String(), nil
}

func isAllowedChannelRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	default:
		return false
	}
}

// ValidImageDims reports whether decoded image dimensions are inside the
// accepted (0, MaxImageDim] range.
func ValidImageDims(width, height int) bool {
	return width > 0 && width <= MaxImageDim && height > 0 && height <= MaxImageDim
}
