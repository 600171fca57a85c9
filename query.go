package phpfile

import "time"

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// QueryContext is the input of one expression evaluation.
type QueryContext struct {
	// Value is the native form of the data being queried (see Native).
	// File.EvaluateWith fills it from the held value when nil.
	Value    any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	// Source is the path of the file Value came from, if any.
	Source string
}

func (ctx QueryContext) withDefaults() QueryContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

// variables returns the names every engine binds. Top-level keys of a map
// value are bound as well, but never shadow the fixed names.
func (ctx QueryContext) variables() map[string]any {
	vars := map[string]any{}
	if m, ok := ctx.Value.(map[string]any); ok {
		for key, item := range m {
			vars[key] = item
		}
	}
	vars["value"] = ctx.Value
	vars["source"] = ctx.Source
	vars["args"] = ctx.Args
	vars["metadata"] = ctx.Metadata
	if ctx.Now != nil {
		vars["now"] = *ctx.Now
	} else {
		vars["now"] = time.Now()
	}
	return vars
}

// Evaluator runs query expressions.
type Evaluator interface {
	Evaluate(ctx QueryContext, expr string) (any, error)
	Compile(expr string) (Query, error)
}

// Query is a compiled expression that can be run against many contexts.
type Query interface {
	Expression() string
	Evaluate(ctx QueryContext) (any, error)
}
