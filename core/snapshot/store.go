package snapshot

import (
	"sort"
	"sync"
	"time"

	"github.com/voltpath/vlink/core/model"
)

// Entry is a cached snapshot with the time it was received.
type Entry struct {
	Snapshot   model.TelemetrySnapshot `json:"snapshot"`
	ReceivedAt time.Time               `json:"received_at"`
}

// Store keeps the last known snapshot per vehicle. When live telemetry is
// unavailable these cached values remain authoritative for the embedding
// application.
type Store interface {
	Set(model.TelemetrySnapshot)
	Get(vehicleID string) (Entry, bool)
	List() []Entry
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Entry
	now  func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Entry{}, now: time.Now}
}

// Set replaces the cached snapshot for the vehicle.
func (s *MemoryStore) Set(snap model.TelemetrySnapshot) {
	s.mu.Lock()
	s.data[snap.VehicleID] = Entry{Snapshot: snap, ReceivedAt: s.now()}
	s.mu.Unlock()
}

// Get returns the cached snapshot for the vehicle, if any.
func (s *MemoryStore) Get(vehicleID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[vehicleID]
	return e, ok
}

// List returns all cached entries sorted by vehicle id.
func (s *MemoryStore) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Snapshot.VehicleID < res[j].Snapshot.VehicleID
	})
	return res
}
