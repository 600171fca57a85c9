package phpfile

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluator runs queries with github.com/expr-lang/expr. It is the
// engine File.Evaluate uses when none is configured.
//
// Builtins and registered functions are callable by name, e.g.
// `dig(value, "db.port") > 1024`, and through `call("name", args...)`.
type ExprEvaluator struct {
	engine
}

// NewExprEvaluator returns an expr-lang backed Evaluator.
func NewExprEvaluator(opts ...EngineOption) *ExprEvaluator {
	return &ExprEvaluator{engine: newEngine("expr", opts)}
}

func (e *ExprEvaluator) Evaluate(ctx QueryContext, expr string) (any, error) {
	q, err := e.Compile(expr)
	if err != nil {
		return nil, e.fail(expr, ctx.Source, err)
	}
	return q.Evaluate(ctx)
}

// Compile checks expr once; the program is shared through the cache.
func (e *ExprEvaluator) Compile(expr string) (Query, error) {
	if err := e.checkExpression(expr); err != nil {
		return nil, err
	}
	prog, err := program(e.engine, expr, func() (*exprvm.Program, error) {
		return exprlang.Compile(expr, e.compileOptions()...)
	})
	if err != nil {
		return nil, e.fail(expr, "", err)
	}
	return &query{expr: expr, run: func(ctx QueryContext) (any, error) {
		out, err := exprlang.Run(prog, e.env(ctx))
		if err != nil {
			return nil, e.fail(expr, ctx.Source, err)
		}
		return out, nil
	}}, nil
}

func (e *ExprEvaluator) compileOptions() []exprlang.Option {
	opts := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.functions.Names() {
		fn, _ := e.functions.lookup(name)
		opts = append(opts, exprlang.Function(name, fn))
	}
	return opts
}

func (e *ExprEvaluator) env(ctx QueryContext) map[string]any {
	env := ctx.variables()
	env["call"] = func(name string, args ...any) (any, error) {
		return e.functions.Call(name, args...)
	}
	return env
}
