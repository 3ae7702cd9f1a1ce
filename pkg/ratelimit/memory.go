package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowKey struct {
	key   string
	start int64
}

type windowEntry struct {
	count   int64
	expires time.Time
}

// MemoryCounter keeps counters in process memory. Expired windows are pruned
// lazily, at most once per window length.
type MemoryCounter struct {
	mu        sync.Mutex
	entries   map[windowKey]*windowEntry
	lastPrune time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{entries: make(map[windowKey]*windowEntry)}
}

func (m *MemoryCounter) Name() string { return "memory" }

func (m *MemoryCounter) Incr(_ context.Context, key string, windowStart time.Time, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if windowStart.Sub(m.lastPrune) >= window {
		for k, e := range m.entries {
			if !e.expires.After(windowStart) {
				delete(m.entries, k)
			}
		}
		m.lastPrune = windowStart
	}

	k := windowKey{key: key, start: windowStart.UnixNano()}
	e, ok := m.entries[k]
	if !ok {
		e = &windowEntry{expires: windowStart.Add(window)}
		m.entries[k] = e
	}
	e.count++
	return e.count, nil
}

// Len reports the number of live windows.
func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
