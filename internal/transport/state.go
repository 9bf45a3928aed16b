package transport

// State is the connection lifecycle position of a Conn.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}
