// internal/storage/coin/memory.go
package coin

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/coinview/internal/core"
)

type entry struct {
	coin      *core.Coin
	fetchedAt time.Time
}

// MemoryStore is an in-memory, TTL bounded store of coin payloads.
// A zero TTL disables it: Put is a no-op and Get always misses.
type MemoryStore struct {
	entries map[string]entry
	ttl     time.Duration
	maxSize int
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(ttl time.Duration, maxSize int) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Enabled reports whether the store keeps anything.
func (m *MemoryStore) Enabled() bool {
	return m.ttl > 0
}

// Put stores a payload fetched now.
func (m *MemoryStore) Put(ctx context.Context, id string, c *core.Coin) {
	if !m.Enabled() || c == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[id]; !exists && m.maxSize > 0 && len(m.entries) >= m.maxSize {
		m.evictOldestLocked()
	}
	m.entries[id] = entry{coin: c, fetchedAt: m.now()}
}

// Get returns a fresh payload for id.
func (m *MemoryStore) Get(ctx context.Context, id string) (*core.Coin, error) {
	if !m.Enabled() {
		return nil, core.ErrNotCached
	}

	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok || m.now().Sub(e.fetchedAt) >= m.ttl {
		return nil, core.ErrNotCached
	}
	return e.coin, nil
}

// Len returns the number of stored payloads, fresh or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Cleanup removes expired entries and returns how many were removed.
func (m *MemoryStore) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, e := range m.entries {
		if now.Sub(e.fetchedAt) >= m.ttl {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine periodically removes expired entries until ctx ends.
func (m *MemoryStore) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	if !m.Enabled() || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

func (m *MemoryStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range m.entries {
		if oldestID == "" || e.fetchedAt.Before(oldest) {
			oldestID, oldest = id, e.fetchedAt
		}
	}
	delete(m.entries, oldestID)
}
