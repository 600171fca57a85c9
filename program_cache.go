package phpfile

import "sync"

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *fileConfig) {
		cfg.programCache = cache
	}
}

// NewProgramCache returns an unbounded ProgramCache safe for concurrent use.
func NewProgramCache() ProgramCache {
	return &mapProgramCache{programs: map[string]any{}}
}

type mapProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

func (c *mapProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	program, ok := c.programs[key]
	return program, ok
}

func (c *mapProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs[key] = value
}
