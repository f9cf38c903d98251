package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation with TTL support.
// It backs the local cache tier in production and substitutes for Redis
// in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]entry
	sets   map[string]map[string]struct{}
	stopCh chan struct{}
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	s := &MemoryStore{
		items:  make(map[string]entry),
		sets:   make(map[string]map[string]struct{}),
		stopCh: make(chan struct{}),
	}
	go s.cleanup()
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[key]
	if !ok || e.expired(time.Now()) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = newEntry(value, ttl)
	return nil
}

func (s *MemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[key]; ok && !e.expired(time.Now()) {
		return false, nil
	}
	s.items[key] = newEntry(value, ttl)
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.items, key)
		delete(s.sets, key)
	}
	return nil
}

func (s *MemoryStore) DeletePattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.items {
		if matched, _ := path.Match(pattern, key); matched {
			delete(s.items, key)
		}
	}
	for key := range s.sets {
		if matched, _ := path.Match(pattern, key); matched {
			delete(s.sets, key)
		}
	}
	return nil
}

func (s *MemoryStore) SetAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) SetMembers(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.sets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}

func (s *MemoryStore) SetCard(_ context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.sets[key])), nil
}

func (s *MemoryStore) SetPop(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for m := range s.sets[key] {
		delete(s.sets[key], m)
		return m, nil
	}
	return "", nil
}

// Stop terminates the background cleanup goroutine.
func (s *MemoryStore) Stop() {
	close(s.stopCh)
}

func newEntry(value []byte, ttl time.Duration) entry {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	return e
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.items {
		if e.expired(now) {
			delete(s.items, key)
		}
	}
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)
