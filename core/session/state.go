package session

// State represents the lifecycle position of a telemetry session. It only
// ever advances forward through the activation sequence or jumps to Failed or
// Disconnected; it never regresses.
type State int

const (
	Idle State = iota
	Connecting
	AwaitingConnectAck
	SubscribingTopics
	VerifyingOnline
	Connected
	Disconnected
	Failed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case AwaitingConnectAck:
		return "awaiting_connect_ack"
	case SubscribingTopics:
		return "subscribing_topics"
	case VerifyingOnline:
		return "verifying_online"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
