package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Niyant4280/bus-niyojak/internal/clock"
)

// DefaultMemoryEntries bounds a MemoryCache built with a non-positive size.
const DefaultMemoryEntries = 1024

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is a process-local Cache. When full, expired entries are
// dropped first, then the entry closest to expiry.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	clock      clock.Clock
}

func NewMemoryCache(maxEntries int, c clock.Clock) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	if c == nil {
		c = clock.RealClock{}
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		clock:      c,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if !m.clock.Now().Before(entry.expires) {
		delete(m.entries, key)
		return nil, nil
	}
	return entry.value, nil
}

// Set stores a copy of value. A non-positive ttl is a no-op.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evict(now)
	}
	m.entries[key] = memoryEntry{
		value:   append([]byte(nil), value...),
		expires: now.Add(ttl),
	}
	return nil
}

func (m *MemoryCache) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for key, entry := range m.entries {
		if !now.Before(entry.expires) {
			delete(m.entries, key)
			continue
		}
		if oldestKey == "" || entry.expires.Before(oldest) {
			oldestKey, oldest = key, entry.expires
		}
	}
	if len(m.entries) >= m.maxEntries && oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

// Len counts stored entries, including expired ones not yet evicted.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}
