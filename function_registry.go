package phpfile

import (
	"fmt"
	"strings"
)

// Function is a Go callable exposed to query expressions. Arguments arrive
// in the engine's native form; for map and list values that is
// map[string]any and []any.
type Function func(args ...any) (any, error)

// FunctionRegistry holds custom query functions. Names are matched
// case-insensitively.
type FunctionRegistry struct {
	entries *registry[Function]
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{entries: newRegistry[Function]("function")}
}

// Register adds fn under name. Registering a name twice is an error.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if r.entries == nil {
		r.entries = newRegistry[Function]("function")
	}
	return r.entries.register(registryKey(name), strings.TrimSpace(name), fn, fn == nil)
}

func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	return &FunctionRegistry{entries: r.entries.clone()}
}

func (r *FunctionRegistry) lookup(name string) (Function, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.entries.lookup(registryKey(name))
	return fn, ok && fn != nil
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	fn, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("phpfile: unknown function %q", name)
	}
	return fn(args...)
}

// Names lists the registered names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	return r.entries.names()
}

// WithFunctionRegistry makes the functions of registry callable from
// File.Evaluate when no evaluator is set explicitly.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *fileConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction is a shortcut that registers one function. A clash
// with an earlier registration is ignored.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *fileConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
