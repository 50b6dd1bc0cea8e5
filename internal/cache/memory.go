package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is the in-process L1 tier. Values are stored JSON encoded so
// callers never share memory with the cache.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
	metrics    *CacheMetrics
	now        func() time.Time
}

func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		metrics:    NewCacheMetrics(),
		now:        time.Now,
	}
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[key] = memoryEntry{data: data, expiresAt: m.now().Add(ttl)}
	m.metrics.RecordSet()
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(entry.expiresAt) {
		m.metrics.RecordMiss()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		m.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	m.metrics.RecordHit()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.entries, key)
	}
	m.metrics.RecordDelete()
	return nil
}

// DeletePattern accepts the same glob syntax as redis KEYS for the common
// cases (*, ?, [...]).
func (m *MemoryCache) DeletePattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	m.metrics.RecordDelete()
	return nil
}

// evictLocked drops expired entries, and if none were expired the entry
// closest to expiry.
func (m *MemoryCache) evictLocked() {
	now := m.now()
	var (
		victim   string
		earliest time.Time
	)
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			continue
		}
		if victim == "" || entry.expiresAt.Before(earliest) {
			victim, earliest = key, entry.expiresAt
		}
	}
	if len(m.entries) >= m.maxEntries && victim != "" {
		delete(m.entries, victim)
	}
}

func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryCache) Health(context.Context) error {
	return nil
}

func (m *MemoryCache) Stats() map[string]interface{} {
	snapshot := m.metrics.GetStats()
	return map[string]interface{}{
		"entries":  m.Len(),
		"hits":     snapshot.Hits,
		"misses":   snapshot.Misses,
		"hit_rate": m.metrics.HitRate(),
	}
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}
