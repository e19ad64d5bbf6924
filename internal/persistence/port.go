// Package persistence saves store collections through a durable Port and
// restores them at start-up. Saves are best-effort: the in-memory store stays
// the source of truth and failed saves are retried after the next change.
package persistence

import (
	"context"
	"sync"
)

// Port loads and saves one serialized collection at a time.
type Port interface {
	// Load reports found=false for a collection that was never saved.
	Load(ctx context.Context, name string) (payload []byte, found bool, err error)
	Save(ctx context.Context, name string, payload []byte) error
}

// MemoryPort keeps payloads in process memory.
type MemoryPort struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryPort creates an empty MemoryPort.
func NewMemoryPort() *MemoryPort {
	return &MemoryPort{items: make(map[string][]byte)}
}

func (m *MemoryPort) Load(_ context.Context, name string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.items[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), p...), true, nil
}

func (m *MemoryPort) Save(_ context.Context, name string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[name] = append([]byte(nil), payload...)
	return nil
}
