package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/voltpath/vlink/core/model"
)

// JSONDecoder decodes telemetry payloads as JSON. The only required field is
// the vehicle identifier; the rest of the schema is owned by the backend and
// carried opaquely.
type JSONDecoder struct{}

// Decode implements the session.SnapshotDecoder port.
func (JSONDecoder) Decode(payload []byte) (model.TelemetrySnapshot, error) {
	var snap model.TelemetrySnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return model.TelemetrySnapshot{}, fmt.Errorf("decode telemetry payload: %w", err)
	}
	if snap.VehicleID == "" {
		return model.TelemetrySnapshot{}, fmt.Errorf("telemetry payload missing vehicle_id")
	}
	return snap, nil
}
