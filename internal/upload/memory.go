package upload

import (
	"context"
	"sort"
	"sync"
)

// MemoryRecorder is an in-memory Recorder for tests and database-less
// development runs.
type MemoryRecorder struct {
	mu     sync.RWMutex
	tracks []Track
}

// NewMemoryRecorder creates an empty in-memory Recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Create stores a copy of the record.
func (m *MemoryRecorder) Create(_ context.Context, t *Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = append(m.tracks, *t)
	return nil
}

// ListByOwner returns the owner's records, newest first.
func (m *MemoryRecorder) ListByOwner(_ context.Context, ownerID string) ([]Track, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Track
	for _, t := range m.tracks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

// All returns every stored record. Test helper.
func (m *MemoryRecorder) All() []Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Track(nil), m.tracks...)
}
