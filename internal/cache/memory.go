package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store used when no Redis URL is configured.
// It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	gens    map[Tag]int64
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		gens:    make(map[Tag]int64),
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

// Get resolves key against the current tag generations.
func (m *Memory) Get(_ context.Context, tags []Tag, key string) (Lookup, error) {
	m.mu.RLock()
	gens := make([]int64, len(tags))
	for i, tag := range tags {
		gens[i] = m.gens[tag]
	}
	qk := qualify("", key, tags, gens)
	e, ok := m.entries[qk]
	m.mu.RUnlock()

	if !ok {
		return Lookup{Key: qk}, nil
	}
	if m.now().After(e.expiresAt) {
		m.evictExpired(qk)
		return Lookup{Key: qk}, nil
	}
	return Lookup{Key: qk, Value: e.value, Hit: true}, nil
}

// evictExpired deletes qk if it is still expired. A Put may have replaced it
// since the caller's read lock was released.
func (m *Memory) evictExpired(qk string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[qk]; ok && m.now().After(e.expiresAt) {
		delete(m.entries, qk)
	}
}

// Put stores value under the qualified key until ttl elapses. A key built on
// a generation that has since been invalidated is dropped, since no Get can
// reach it again.
func (m *Memory) Put(_ context.Context, qualifiedKey string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if outdated(qualifiedKey, m.gens) {
		return nil
	}
	m.entries[qualifiedKey] = memEntry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

// Invalidate bumps the tag generation and frees every entry built on it.
func (m *Memory) Invalidate(_ context.Context, tag Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[tag]++
	for k := range m.entries {
		if dependsOn(k, tag) {
			delete(m.entries, k)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
