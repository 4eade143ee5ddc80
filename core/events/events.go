package events

import "github.com/voltpath/vlink/core/model"

// StateEvent is published on every session state transition.
type StateEvent struct {
	From string
	To   string
}

// SnapshotEvent is published for each decoded telemetry snapshot.
type SnapshotEvent struct {
	Snapshot model.TelemetrySnapshot
}

// ErrorEvent is published when an activation stage fails or an inbound
// payload cannot be decoded.
type ErrorEvent struct {
	Stage string
	Err   error
}
