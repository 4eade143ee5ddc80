package session

import "github.com/voltpath/vlink/core/model"

// Credentials authenticate the broker link. Username is the client identifier
// assigned during device registration; Password is the current bearer token.
type Credentials struct {
	ClientID string
	Username string
	Password string
}

// Event is one item on the transport's tagged event stream. The underlying
// broker library exposes several callbacks; implementations collapse them
// into this single stream so the coordinator consumes everything from one
// loop.
type Event interface {
	isEvent()
}

// ConnectAck reports the outcome of the connect handshake. Code is zero on
// success and carries the broker's rejection code otherwise. Err is set for
// transport-level failures that never reached a handshake.
type ConnectAck struct {
	Code byte
	Err  error
}

// SubAck reports one batch of per-topic subscription outcomes. The broker may
// acknowledge topics across several batches.
type SubAck struct {
	// Results maps topic to whether the subscription was granted.
	Results map[string]bool
}

// InboundMessage is a runtime message published on a subscribed topic.
type InboundMessage struct {
	Topic   string
	Payload []byte
}

// ConnectionLost reports an unexpected transport-level disconnection. An
// orderly Close does not produce one.
type ConnectionLost struct {
	Cause error
}

func (ConnectAck) isEvent()     {}
func (SubAck) isEvent()         {}
func (InboundMessage) isEvent() {}
func (ConnectionLost) isEvent() {}

// Transport is the broker link exclusively owned by the coordinator for the
// session's lifetime. One transport serves one activation attempt.
type Transport interface {
	// Open starts the connection attempt. Only immediate failures are
	// returned; the handshake outcome arrives as a ConnectAck event.
	Open(host model.HostInfo, creds Credentials) error
	// Subscribe requests the given topics. Per-topic outcomes arrive as one
	// or more SubAck events.
	Subscribe(topics []string) error
	// Events returns the tagged event stream. The channel is closed by
	// Close.
	Events() <-chan Event
	// Close tears down the link. It is safe to call multiple times and on a
	// link that never connected.
	Close()
}

// TransportFactory builds a fresh Transport for one activation attempt.
type TransportFactory func() Transport
