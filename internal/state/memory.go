package state

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	payload []byte
}

// NewMemoryStore keeps the payload in process memory only.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Load(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.payload == nil {
		return nil, nil
	}
	return append([]byte(nil), m.payload...), nil
}

func (m *memoryStore) Save(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = append([]byte(nil), payload...)
	return nil
}

func (m *memoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = nil
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}
