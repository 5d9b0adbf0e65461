package exception

import "github.com/yanun0323/errors"

// Render errors. Image decode failures skip a single render pass; the
// surface keeps its last successfully rendered content.
var (
	ErrImageDecode   = errors.New("render: image decode failed")
	ErrBadDimensions = errors.New("render: image dimensions out of range")
)
