package model

import "encoding/json"

// TelemetrySnapshot is one decoded unit of vehicle telemetry delivered over
// the telemetry topic. Beyond the vehicle identifier the payload schema is
// owned by the backend; Status carries it opaquely.
type TelemetrySnapshot struct {
	VehicleID string                     `json:"vehicle_id"`
	Status    map[string]json.RawMessage `json:"status,omitempty"`
}
