package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Backend. Contexts made with Sibling share the same data
// and get notified about each other's changes, like processes sharing a file.
type Memory struct {
	id     string
	shared *memoryData
}

type memoryData struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[string]memoryWatcher // subscription id -> watcher
}

type memoryWatcher struct {
	owner string
	keys  map[string]bool
	fn    func(key string)
}

// NewMemory makes empty in-memory backend
func NewMemory() *Memory {
	return &Memory{
		id:     uuid.NewString(),
		shared: &memoryData{data: map[string][]byte{}, watchers: map[string]memoryWatcher{}},
	}
}

// Sibling returns another context bound to the same data
func (m *Memory) Sibling() *Memory {
	return &Memory{id: uuid.NewString(), shared: m.shared}
}

// Load returns copy of stored data
func (m *Memory) Load(key string) ([]byte, error) {
	m.shared.mu.Lock()
	defer m.shared.mu.Unlock()
	data, ok := m.shared.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	res := make([]byte, len(data))
	copy(res, data)
	return res, nil
}

// Save stores copy of data and notifies other contexts
func (m *Memory) Save(key string, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.shared.mu.Lock()
	m.shared.data[key] = cp
	m.shared.mu.Unlock()
	m.notify(key)
	return nil
}

// Delete removes the key and notifies other contexts. Missing key is not an error
func (m *Memory) Delete(key string) error {
	m.shared.mu.Lock()
	_, ok := m.shared.data[key]
	delete(m.shared.data, key)
	m.shared.mu.Unlock()
	if ok {
		m.notify(key)
	}
	return nil
}

// Watch registers fn for changes made by other contexts, fn called synchronously from the writer
func (m *Memory) Watch(ctx context.Context, keys []string, fn func(key string)) error {
	w := memoryWatcher{owner: m.id, keys: map[string]bool{}, fn: fn}
	for _, k := range keys {
		w.keys[k] = true
	}
	subID := uuid.NewString()
	m.shared.mu.Lock()
	m.shared.watchers[subID] = w
	m.shared.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.shared.mu.Lock()
		delete(m.shared.watchers, subID)
		m.shared.mu.Unlock()
	}()
	return nil
}

// Close does nothing
func (m *Memory) Close() error { return nil }

func (m *Memory) notify(key string) {
	m.shared.mu.Lock()
	fns := []func(string){}
	for _, w := range m.shared.watchers {
		if w.owner != m.id && w.keys[key] {
			fns = append(fns, w.fn)
		}
	}
	m.shared.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}
