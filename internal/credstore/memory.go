package credstore

import (
	"bytes"
	"slices"
	"sync"
)

type memoryKey struct{ service, key string }

// MemoryBackend is an in-memory credential store for tests
// and for processes that must not touch the OS store.
// Its zero value is ready for use.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[memoryKey][]byte
}

var _ Backend = (*MemoryBackend)(nil)

// Save stores a copy of data.
func (m *MemoryBackend) Save(service, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records == nil {
		m.records = make(map[memoryKey][]byte)
	}
	m.records[memoryKey{service, key}] = bytes.Clone(nonNil(data))
	return nil
}

// Load returns a copy of the stored payload.
func (m *MemoryBackend) Load(service, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.records[memoryKey{service, key}]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(data), nil
}

// Delete removes the record if present.
func (m *MemoryBackend) Delete(service, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, memoryKey{service, key})
	return nil
}

// Exists reports whether a record is present.
func (m *MemoryBackend) Exists(service, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.records[memoryKey{service, key}]
	return ok, nil
}

// Len reports the number of records across all services.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// bytes.Clone keeps nil as nil; an empty payload must load back as empty.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// Keys lists the keys stored under service, sorted.
func (m *MemoryBackend) Keys(service string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.records {
		if k.service == service {
			keys = append(keys, k.key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
