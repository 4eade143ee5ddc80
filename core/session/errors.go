package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingAuthorization is returned when no bearer token is available.
	ErrMissingAuthorization = errors.New("no access token available")
	// ErrConnectTimeout is returned when the broker never acknowledges the
	// connect handshake.
	ErrConnectTimeout = errors.New("timeout waiting for connect ack")
	// ErrSubscribeTimeout is returned when subscription acknowledgments do
	// not cover every requested topic in time.
	ErrSubscribeTimeout = errors.New("timeout waiting for subscription acks")
	// ErrAlreadyActive is returned by Activate while another activation is
	// in flight or the session is live.
	ErrAlreadyActive = errors.New("session already active")
	// ErrSessionClosed resolves any waiter still pending when the session is
	// torn down.
	ErrSessionClosed = errors.New("session torn down")
)

// BootstrapStep names one of the sequential HTTP calls preceding the broker
// session.
type BootstrapStep string

const (
	StepHost              BootstrapStep = "host"
	StepRegister          BootstrapStep = "register"
	StepMetadata          BootstrapStep = "metadata"
	StepProtocolSubscribe BootstrapStep = "protocolSubscribe"
)

// BootstrapError wraps a failure of one bootstrap step. No step retries
// internally; the first failure aborts the whole sequence.
type BootstrapError struct {
	Step  BootstrapStep
	Cause error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap step %s: %v", e.Step, e.Cause)
}

func (e *BootstrapError) Unwrap() error { return e.Cause }

// ConnectionRejectedError is returned when the broker answers the connect
// handshake with a non-success code.
type ConnectionRejectedError struct {
	Code  byte
	Cause error
}

func (e *ConnectionRejectedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("broker rejected connection (code %d): %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("broker rejected connection (code %d)", e.Code)
}

func (e *ConnectionRejectedError) Unwrap() error { return e.Cause }

// SubscriptionError reports topics that were rejected by the broker or, when
// Timeout is set, topics still unacknowledged when the subscribe window
// closed. Cause is set when the subscribe request itself failed before any
// per-topic outcome was reported.
type SubscriptionError struct {
	Topics  []string
	Timeout bool
	Cause   error
}

func (e *SubscriptionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("subscription timed out, still pending: %s", strings.Join(e.Topics, ", "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("subscribe request failed for topics %s: %v", strings.Join(e.Topics, ", "), e.Cause)
	}
	return fmt.Sprintf("subscription failed for topics: %s", strings.Join(e.Topics, ", "))
}

// Unwrap lets errors.Is match ErrSubscribeTimeout on timeout errors and the
// request cause otherwise.
func (e *SubscriptionError) Unwrap() error {
	if e.Timeout {
		return ErrSubscribeTimeout
	}
	return e.Cause
}

// NotOnlineError is returned when the post-subscribe state check reports
// anything other than ONLINE.
type NotOnlineError struct {
	State string
}

func (e *NotOnlineError) Error() string {
	return fmt.Sprintf("remote connection state is %q, expected %q", e.State, "ONLINE")
}

// DisconnectError wraps the cause of an unexpected transport-level
// disconnection.
type DisconnectError struct {
	Cause error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("unexpected disconnect: %v", e.Cause)
}

func (e *DisconnectError) Unwrap() error { return e.Cause }
