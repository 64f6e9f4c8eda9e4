package settings

import (
	"context"
	"encoding/json"
	"sync"
)

type Store interface {
	// Load returns the persisted record for origin, or nil when nothing was saved.
	Load(ctx context.Context, origin string) (*Patch, error)
	Save(ctx context.Context, origin string, s Settings) error
}

func recordKey(origin string) string {
	if origin == "" {
		return StorageKey
	}
	return StorageKey + ":" + origin
}

func decodeRecord(data []byte) (*Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Settings)}
}

func (m *MemoryStore) Load(_ context.Context, origin string) (*Patch, error) {
	m.mu.RLock()
	s, ok := m.records[recordKey(origin)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return s.ToPatch(), nil
}

func (m *MemoryStore) Save(_ context.Context, origin string, s Settings) error {
	m.mu.Lock()
	m.records[recordKey(origin)] = s
	m.mu.Unlock()
	return nil
}
