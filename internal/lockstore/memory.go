package lockstore

import (
    "context"
    "sync"
    "time"
)

type memoryEntry struct {
    holder    string
    expiresAt time.Time
}

// MemoryStore is an in-process Store used by tests and single-node
// development runs.  Expiry is evaluated lazily against the injected
// clock; entries past their deadline behave exactly as if they had
// been deleted.  It honours the same atomicity contract as the Redis
// implementation by holding its mutex across each check-and-write.
type MemoryStore struct {
    mu      sync.Mutex
    entries map[string]memoryEntry
    now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore reading the real clock.
func NewMemoryStore() *MemoryStore {
    return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// WithClock replaces the store's clock and returns the store.  Tests
// use this to simulate TTL expiry without sleeping.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.now = now
    return s
}

func (s *MemoryStore) live(key string) (memoryEntry, bool) {
    e, ok := s.entries[key]
    if !ok {
        return memoryEntry{}, false
    }
    if !s.now().Before(e.expiresAt) {
        delete(s.entries, key)
        return memoryEntry{}, false
    }
    return e, true
}

func (s *MemoryStore) TryAcquire(_ context.Context, key, holder string, ttl time.Duration) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.live(key); ok {
        return false, nil
    }
    s.entries[key] = memoryEntry{holder: holder, expiresAt: s.now().Add(ttl)}
    return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key, holder string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.live(key)
    if !ok || e.holder != holder {
        return false, nil
    }
    delete(s.entries, key)
    return true, nil
}

func (s *MemoryStore) RemainingTTL(_ context.Context, key string) (time.Duration, bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.live(key)
    if !ok {
        return 0, false, nil
    }
    return e.expiresAt.Sub(s.now()), true, nil
}
