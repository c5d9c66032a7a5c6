package ledger

import (
	"context"
	"sync"

	"github.com/roach88/priorledger/internal/ir"
)

// MemoryBackend keeps entries in memory. Safe for concurrent use.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string][]ir.LearningEntry
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string][]ir.LearningEntry)}
}

// Load implements Backend.
func (m *MemoryBackend) Load(_ context.Context, business string) ([]ir.LearningEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ir.LearningEntry, len(m.entries[business]))
	copy(out, m.entries[business])
	return out, nil
}

// Write implements Backend.
func (m *MemoryBackend) Write(_ context.Context, business string, entry ir.LearningEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[business] = append(m.entries[business], entry)
	return nil
}
