package phpfile

import (
	"fmt"
	"time"
)

// EngineOption configures any of the bundled evaluators.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cache     ProgramCache
	functions *FunctionRegistry
	timeout   time.Duration
}

// EngineProgramCache stores compiled programs in cache, keyed by engine
// and expression.
func EngineProgramCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// EngineFunctions exposes a copy of registry to expressions.
func EngineFunctions(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// EngineTimeout interrupts a single evaluation running longer than d.
// Only the js engine can be interrupted; the others ignore it.
func EngineTimeout(d time.Duration) EngineOption {
	return func(cfg *engineConfig) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// engine holds what the evaluators share: the engine name used in errors
// and cache keys, the cache, and the callable functions (builtins merged
// with the configured registry).
type engine struct {
	name      string
	cache     ProgramCache
	functions *FunctionRegistry
	timeout   time.Duration
}

func newEngine(name string, opts []EngineOption) engine {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return engine{
		name:      name,
		cache:     cfg.cache,
		functions: queryFunctions(cfg.functions),
		timeout:   cfg.timeout,
	}
}

// program returns the cached program for key or builds and caches a new
// one. key is prefixed with the engine name.
func program[P any](e engine, key string, build func() (P, error)) (P, error) {
	key = e.name + ":" + key
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if p, ok := cached.(P); ok {
				return p, nil
			}
		}
	}
	p, err := build()
	if err != nil {
		var zero P
		return zero, err
	}
	if e.cache != nil {
		e.cache.Set(key, p)
	}
	return p, nil
}

func (e engine) checkExpression(expr string) error {
	if expr == "" {
		return fmt.Errorf("%w: %s: expression must not be empty", ErrInvalidOperation, e.name)
	}
	return nil
}

func (e engine) fail(expr, source string, err error) error {
	return evaluationFailure(e.name, expr, source, err)
}

// query adapts a per-engine run function to Query.
type query struct {
	expr string
	run  func(QueryContext) (any, error)
}

func (q *query) Expression() string { return q.expr }

func (q *query) Evaluate(ctx QueryContext) (any, error) {
	return q.run(ctx.withDefaults())
}

// Engine names the expression language, as used in errors and logs.
func (e engine) Engine() string { return e.name }
