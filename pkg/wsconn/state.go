package wsconn

// State is the connection lifecycle state.
//
// Transitions: Closed → Connecting → Open → {Closing → Closed | Closed}.
// A clean close (explicit Disconnect, or a normal closure from the peer)
// never triggers reconnection; a dirty close schedules backoff reconnects
// until MaxAttempts is exhausted.
type State uint8

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}
