package phpfile

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// registry is the name-keyed store shared by FactoryRegistry and
// FunctionRegistry. Keys are case-insensitive; the name given at
// registration is kept for listing.
type registry[F any] struct {
	kind    string
	mu      sync.RWMutex
	entries map[string]registryEntry[F]
}

type registryEntry[F any] struct {
	name  string
	value F
}

func newRegistry[F any](kind string) *registry[F] {
	return &registry[F]{kind: kind, entries: make(map[string]registryEntry[F])}
}

func (r *registry[F]) register(key, name string, value F, isNil bool) error {
	if isNil {
		return fmt.Errorf("phpfile: %s %q is nil", r.kind, name)
	}
	if key == "" {
		return fmt.Errorf("phpfile: %s name must not be empty", r.kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]registryEntry[F])
	}
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("phpfile: %s %q already registered", r.kind, name)
	}
	r.entries[key] = registryEntry[F]{name: name, value: value}
	return nil
}

func (r *registry[F]) lookup(key string) (F, bool) {
	if r == nil {
		var zero F
		return zero, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[key]
	return entry.value, ok
}

func (r *registry[F]) clone() *registry[F] {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &registry[F]{kind: r.kind, entries: make(map[string]registryEntry[F], len(r.entries))}
	for key, entry := range r.entries {
		out.entries[key] = entry
	}
	return out
}

func (r *registry[F]) names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
