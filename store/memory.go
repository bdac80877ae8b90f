package store

import (
	"context"
	"sync"
)

// Memory keeps everything in process memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, guildID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[guildID][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, guildID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.data[guildID]
	if !ok {
		g = make(map[string][]byte)
		m.data[guildID] = g
	}
	g[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, guildID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[guildID], key)
	return nil
}
