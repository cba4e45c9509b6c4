package cache

import (
	"context"
	"sync"
	"time"
)

// Cache exposes the minimal API needed for schema caching.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Nop cache returns misses and ignores writes.
type Nop struct{}

var _ Cache = (*Nop)(nil)

func (n *Nop) Get(ctx context.Context, key string) (any, bool, error) { return nil, false, nil }
func (n *Nop) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (n *Nop) Delete(ctx context.Context, key string) error { return nil }

// Memory is a process-local cache. A zero ttl never expires.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   any
	expires time.Time
}

var _ Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (any, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expires.IsZero() && m.now().After(entry.expires) {
		_ = m.Delete(context.Background(), key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
