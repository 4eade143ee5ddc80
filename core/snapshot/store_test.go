package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltpath/vlink/core/model"
)

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	s.Set(model.TelemetrySnapshot{VehicleID: "v-1"})
	e, ok := s.Get("v-1")
	require.True(t, ok)
	assert.Equal(t, "v-1", e.Snapshot.VehicleID)
	assert.False(t, e.ReceivedAt.IsZero())

	_, ok = s.Get("v-2")
	assert.False(t, ok)
}

func TestMemoryStoreListSorted(t *testing.T) {
	s := NewMemoryStore()
	s.Set(model.TelemetrySnapshot{VehicleID: "v-2"})
	s.Set(model.TelemetrySnapshot{VehicleID: "v-1"})
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "v-1", list[0].Snapshot.VehicleID)
	assert.Equal(t, "v-2", list[1].Snapshot.VehicleID)
}

func TestMemoryStoreOverwrites(t *testing.T) {
	s := NewMemoryStore()
	s.Set(model.TelemetrySnapshot{VehicleID: "v-1"})
	status := map[string]json.RawMessage{"soc": json.RawMessage(`72`)}
	s.Set(model.TelemetrySnapshot{VehicleID: "v-1", Status: status})
	e, ok := s.Get("v-1")
	require.True(t, ok)
	assert.Equal(t, status, e.Snapshot.Status)
	assert.Len(t, s.List(), 1)
}

func TestJSONDecoder(t *testing.T) {
	dec := JSONDecoder{}

	snap, err := dec.Decode([]byte(`{"vehicle_id":"v-1","status":{"soc":72}}`))
	require.NoError(t, err)
	assert.Equal(t, "v-1", snap.VehicleID)
	assert.Contains(t, snap.Status, "soc")

	_, err = dec.Decode([]byte(`{not json`))
	assert.Error(t, err)

	_, err = dec.Decode([]byte(`{"status":{}}`))
	assert.Error(t, err)
}
