package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store and ListStore used for tests and for
// single-node deployments that run without Redis. Per-key appends are
// serialised by the store mutex; expiry is evaluated lazily on access.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	values   map[string]memoryValue
	lists    map[string]*memoryList
	now      func() time.Time
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

type memoryValue struct {
	data      []byte
	expiresAt time.Time
}

type memoryList struct {
	entries   [][]byte
	expiresAt time.Time
}

var (
	_ Store     = (*MemoryStore)(nil)
	_ ListStore = (*MemoryStore)(nil)
)

// NewMemoryStore constructs an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*memoryCounter),
		values:   make(map[string]memoryValue),
		lists:    make(map[string]*memoryList),
		now:      time.Now,
	}
}

// IncrementWithTTL increments the counter at key, starting a fresh window when
// the previous one has lapsed.
func (s *MemoryStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	counter, ok := s.counters[key]
	if !ok || now.After(counter.expiresAt) {
		counter = &memoryCounter{expiresAt: now.Add(window)}
		s.counters[key] = counter
	}
	counter.count++
	return counter.count, counter.expiresAt.Sub(now), nil
}

// Set stores a value with an expiry.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := make([]byte, len(value))
	copy(data, value)
	s.values[key] = memoryValue{data: data, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get retrieves a value, reporting whether it exists and is unexpired.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	if s.now().After(value.expiresAt) {
		delete(s.values, key)
		return nil, false, nil
	}
	return value.data, true, nil
}

// Delete removes keys from every namespace.
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.counters, key)
		delete(s.values, key)
		delete(s.lists, key)
	}
	return nil
}

// PushCapped appends to the list at key, evicting the oldest entries beyond
// limit and refreshing the whole key's TTL.
func (s *MemoryStore) PushCapped(ctx context.Context, key string, value []byte, limit int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	list, ok := s.lists[key]
	if !ok || now.After(list.expiresAt) {
		list = &memoryList{}
		s.lists[key] = list
	}

	data := make([]byte, len(value))
	copy(data, value)
	list.entries = append(list.entries, data)
	if limit > 0 && len(list.entries) > limit {
		list.entries = list.entries[len(list.entries)-limit:]
	}
	list.expiresAt = now.Add(ttl)
	return nil
}

// Range returns the unexpired list contents in insertion order.
func (s *MemoryStore) Range(ctx context.Context, key string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[key]
	if !ok {
		return nil, nil
	}
	if s.now().After(list.expiresAt) {
		delete(s.lists, key)
		return nil, nil
	}

	out := make([][]byte, len(list.entries))
	copy(out, list.entries)
	return out, nil
}

// SetClock overrides the store's clock, for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
