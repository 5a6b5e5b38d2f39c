package storage

import (
	"context"
	"sync"
)

// StoredObject is a copy of what a MemoryStore received.
type StoredObject struct {
	Data    []byte
	Options PutOptions
}

// MemoryStore keeps objects in process memory. It backs the "memory" driver
// for local runs without an object store.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]StoredObject
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string]StoredObject), baseURL: baseURL}
}

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{Data: append([]byte(nil), data...), Options: opts}
	return nil
}

func (m *MemoryStore) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	return m.baseURL + "/" + key
}

func (m *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

// Get returns the stored object for assertions.
func (m *MemoryStore) Get(key string) (StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return StoredObject{}, false
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return obj, true
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

var _ BlobStore = (*MemoryStore)(nil)
