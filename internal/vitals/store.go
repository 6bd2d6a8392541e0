package vitals

import (
	"context"
	"sort"
	"sync"
)

// HistoryStore supplies a patient's prior readings and records new ones.
type HistoryStore interface {
	// History returns up to limit readings for the patient, newest first.
	// A limit <= 0 returns every stored reading.
	History(ctx context.Context, patientID string, limit int) ([]Reading, error)
	Save(ctx context.Context, r Reading) error
}

// MemoryStore keeps readings in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	readings map[string][]Reading
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{readings: make(map[string][]Reading)}
}

func (m *MemoryStore) History(ctx context.Context, patientID string, limit int) ([]Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Reverse insertion order first so equal timestamps stay newest first.
	src := m.readings[patientID]
	out := make([]Reading, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, r Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings[r.PatientID] = append(m.readings[r.PatientID], r)
	return nil
}
