package kv

import (
	"context"
	"sync"
)

// Memory keeps values in a map. It is used by tests and by STORE_BACKEND=memory.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemory() *Memory {
	return &Memory{data: map[string][]byte{}}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	value, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	return m.Batch(ctx, []Mutation{Put(key, value)})
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	return m.Batch(ctx, []Mutation{Remove(key)})
}

func (m *Memory) Batch(ctx context.Context, mutations []Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, mut := range mutations {
		if mut.Delete {
			delete(m.data, mut.Key)
			continue
		}
		m.data[mut.Key] = append([]byte(nil), mut.Value...)
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Keys lists stored keys. Tests use it to inspect quarantined values.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
