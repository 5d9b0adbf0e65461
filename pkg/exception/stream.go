package exception

import "github.com/yanun0323/errors"

// Stream ingest errors. A message failing with any of these is dropped and
// the channel stays open.
var (
	ErrUnparseableMessage = errors.New("wire: unparseable message")
	ErrUnknownMessageType = errors.New("wire: unknown message type")
	ErrEmptyPayload       = errors.New("wire: empty frame payload")
	ErrPayloadTooLarge    = errors.New("wire: frame payload exceeds size cap")
	ErrBadChannelID       = errors.New("wire: invalid channel identifier")
)
