package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// memoryRecorder keeps the trail in process memory for tests and
// database-less local runs.
type memoryRecorder struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]Record
}

func NewMemoryRecorder() Recorder {
	return &memoryRecorder{records: make(map[uuid.UUID][]Record)}
}

func (r *memoryRecorder) Record(ctx context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.SessionID] = append(r.records[record.SessionID], *record)
	return nil
}

func (r *memoryRecorder) List(ctx context.Context, sessionID uuid.UUID) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]Record, len(r.records[sessionID]))
	copy(records, r.records[sessionID])
	return records, nil
}
