package state

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store.
// Answers are lost on restart; use it for development and tests.
type MemoryStore struct {
	items     map[string]memoryItem
	mu        sync.RWMutex
	closed    bool
	cleanupCh chan struct{}
	now       func() time.Time
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (it memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		items:     make(map[string]memoryItem),
		cleanupCh: make(chan struct{}),
		now:       time.Now,
	}

	go ms.cleanupLoop()

	return ms
}

// Get retrieves a copy of a value.
func (ms *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return nil, ErrStoreClosed
	}

	item, ok := ms.items[key]
	if !ok || item.expired(ms.now()) {
		return nil, ErrKeyNotFound
	}
	return slices.Clone(item.value), nil
}

// Set stores a copy of value.
func (ms *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrStoreClosed
	}

	item := memoryItem{value: slices.Clone(value)}
	if ttl > 0 {
		item.expiresAt = ms.now().Add(ttl)
	}
	ms.items[key] = item
	return nil
}

// Delete removes a key.
func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return ErrStoreClosed
	}
	delete(ms.items, key)
	return nil
}

// Exists checks if a key exists.
func (ms *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return false, ErrStoreClosed
	}
	item, ok := ms.items[key]
	return ok && !item.expired(ms.now()), nil
}

// Keys returns keys matching a glob pattern, sorted.
func (ms *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if ms.closed {
		return nil, ErrStoreClosed
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}

	now := ms.now()
	var keys []string
	for key, item := range ms.items {
		if item.expired(now) {
			continue
		}
		if ok, _ := filepath.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Ping fails once the store is closed.
func (ms *MemoryStore) Ping(ctx context.Context) error {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if ms.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close closes the store.
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.closed {
		return nil
	}
	ms.closed = true
	close(ms.cleanupCh)
	return nil
}

// Len returns the number of live items.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := ms.now()
	n := 0
	for _, item := range ms.items {
		if !item.expired(now) {
			n++
		}
	}
	return n
}

func (ms *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.cleanup()
		case <-ms.cleanupCh:
			return
		}
	}
}

func (ms *MemoryStore) cleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	for key, item := range ms.items {
		if item.expired(now) {
			delete(ms.items, key)
		}
	}
}
