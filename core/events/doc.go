// Package events defines the session related events emitted on the event bus.
//
// Available event types:
//   - StateEvent: session state transition
//   - SnapshotEvent: decoded telemetry snapshot
//   - ErrorEvent: activation stage failure or payload decode failure
package events
