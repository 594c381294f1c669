package storage

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Ensure MemoryStorage implements the Storage interface
var _ Storage = (*MemoryStorage)(nil)

type memoryEntry struct {
	value     string
	updatedAt time.Time
}

// MemoryStorage is a process-local Storage implementation guarded by a
// read/write mutex. Suitable for single-instance deployments and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStorage creates a new in-memory storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]memoryEntry),
	}
}

// Get retrieves the value stored under key
func (s *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return entry.value, nil
}

// Set stores value under key, overwriting any previous value
func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{value: value, updatedAt: time.Now()}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// DeleteOlderThan removes entries under prefix last written before cutoff
func (s *MemoryStorage) DeleteOlderThan(_ context.Context, prefix string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key, entry := range s.entries {
		if strings.HasPrefix(key, prefix) && entry.updatedAt.Before(cutoff) {
			delete(s.entries, key)
			count++
		}
	}
	return count, nil
}
