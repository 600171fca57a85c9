package state

import (
	"context"
	"sort"
	"sync"
	"time"

	phpfile "github.com/goliatone/go-phpfile"
)

// MemoryStore keeps values in memory, keyed by Ref.Identifier. Meta is
// stamped the same way FileStore stamps it, so ETag checks behave alike.
// Values are copied in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value phpfile.Value
	meta  Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (phpfile.Value, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, Meta{}, false, nil
	}
	return phpfile.Clone(entry.value), cloneMeta(entry.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, ref Ref, value phpfile.Value, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	stored, err := phpfile.Normalize(value)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = map[string]memoryEntry{}
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	out, err := stamp(meta, stored, now())
	if err != nil {
		return Meta{}, err
	}
	s.entries[key] = memoryEntry{value: stored, meta: out}
	return cloneMeta(out), nil
}

// Delete drops the value stored for ref. It reports whether one existed.
func (s *MemoryStore) Delete(_ context.Context, ref Ref) (bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok, nil
}

// Identifiers lists the stored keys in sorted order.
func (s *MemoryStore) Identifiers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
