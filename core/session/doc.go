// Package session implements the real-time telemetry session engine: the
// bootstrap-driven session coordinator state machine, the subscription
// acknowledgment tracker, the inbound message router and the Waiter
// primitive bridging asynchronous broker callbacks into a sequential
// activation flow.
package session
