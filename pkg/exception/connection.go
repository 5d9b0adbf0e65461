package exception

import "github.com/yanun0323/errors"

// Connection errors. These are surfaced before any socket is opened, or as
// the terminal state once reconnection is exhausted.
var (
	ErrInvalidScheme       = errors.New("conn: url scheme must be ws or wss")
	ErrInsecureTransport   = errors.New("conn: insecure ws transport rejected in production")
	ErrMaxAttemptsExceeded = errors.New("conn: max reconnect attempts exceeded")
	ErrAlreadyConnected    = errors.New("conn: already connected")
)
