package blocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/mohae/deepcopy"
)

// MemoryStore is an in-memory implementation of Store. It is safe for
// concurrent use and intended for dev/tests.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[Key]storedEntry
	closed bool
}

type storedEntry struct {
	rec  Record
	etag string
}

// NewMemoryStore constructs a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[Key]storedEntry)}
}

// Put inserts or replaces the record at the given key.
func (s *MemoryStore) Put(ctx context.Context, key Key, rec Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	if rec == nil {
		return "", fmt.Errorf("nil record is not allowed")
	}
	cp, err := copyRecord(rec)
	if err != nil {
		return "", err
	}
	etag := ETagFromRecord(cp)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("store is closed")
	}
	s.items[key] = storedEntry{rec: cp, etag: etag}
	return etag, nil
}

// Get retrieves a record by key, returning a deep copy.
func (s *MemoryStore) Get(ctx context.Context, key Key) (Record, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("context canceled: %w", err)
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, "", fmt.Errorf("store is closed")
	}
	entry, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, "", ErrNotFound
	}
	cp, err := copyRecord(entry.rec)
	if err != nil {
		return nil, "", err
	}
	return cp, entry.etag, nil
}

// Delete removes a record by key. Missing keys are a no-op.
func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("store is closed")
	}
	delete(s.items, key)
	return nil
}

// List returns keys stored for a block type slug.
func (s *MemoryStore) List(ctx context.Context, slug string) ([]Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context canceled: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	keys := make([]Key, 0, len(s.items))
	for k := range s.items {
		if k.Slug == slug {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Close releases all stored state.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.items = make(map[Key]storedEntry)
	return nil
}

// copyRecord deep-copies a record so stored state never aliases caller state.
func copyRecord(rec Record) (Record, error) {
	cp, ok := deepcopy.Copy(map[string]any(rec)).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("deep copy failed")
	}
	return cp, nil
}
