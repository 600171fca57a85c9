//go:build js_eval

package phpfile

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// JSEvaluator runs queries as JavaScript expressions with
// github.com/dop251/goja. Each evaluation gets a fresh runtime.
type JSEvaluator struct {
	engine
}

// NewJSEvaluator returns a goja backed Evaluator. Builds without the
// js_eval tag return nil instead.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	return &JSEvaluator{engine: newEngine("js", opts)}
}

func (e *JSEvaluator) Evaluate(ctx QueryContext, expr string) (any, error) {
	q, err := e.Compile(expr)
	if err != nil {
		return nil, e.fail(expr, ctx.Source, err)
	}
	return q.Evaluate(ctx)
}

func (e *JSEvaluator) Compile(expr string) (Query, error) {
	if err := e.checkExpression(expr); err != nil {
		return nil, err
	}
	prog, err := program(e.engine, expr, func() (*goja.Program, error) {
		// Wrapping keeps object literals and statements out of the
		// expression position.
		return goja.Compile("query", "(function(){ return ("+expr+"); })()", false)
	})
	if err != nil {
		return nil, e.fail(expr, "", err)
	}
	return &query{expr: expr, run: func(ctx QueryContext) (any, error) {
		out, err := e.run(ctx, prog)
		if err != nil {
			return nil, e.fail(expr, ctx.Source, err)
		}
		return out, nil
	}}, nil
}

func (e *JSEvaluator) run(ctx QueryContext, prog *goja.Program) (any, error) {
	vm := goja.New()
	for name, value := range ctx.variables() {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}
	if err := vm.Set("call", func(name string, args ...any) (any, error) {
		return e.functions.Call(name, args...)
	}); err != nil {
		return nil, err
	}
	for _, name := range e.functions.Names() {
		fn, _ := e.functions.lookup(name)
		if err := vm.Set(name, fn); err != nil {
			return nil, err
		}
	}

	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() {
			vm.Interrupt(fmt.Sprintf("query exceeded %s", e.timeout))
		})
		defer timer.Stop()
	}
	out, err := vm.RunProgram(prog)
	if err != nil {
		return nil, err
	}
	return out.Export(), nil
}
