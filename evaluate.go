package phpfile

import (
	"fmt"
	"time"
)

// Evaluate runs expr against the held data using the configured engine,
// expr-lang by default. Maps are exposed as plain Go maps and lists as
// slices, so `value.db.host` or `len(value)` work as expected.
func (f *File) Evaluate(expr string) (Response[any], error) {
	return f.EvaluateWith(QueryContext{}, expr)
}

// EvaluateWith runs expr using ctx, falling back to the held data when
// ctx.Value is nil and to the file path when ctx.Source is empty.
func (f *File) EvaluateWith(ctx QueryContext, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, fmt.Errorf("%w: expression must not be empty", ErrInvalidOperation)
	}
	if ctx.Value == nil {
		value, err := f.Get()
		if err != nil {
			return Response[any]{}, err
		}
		ctx.Value = Native(value)
	}
	if ctx.Source == "" {
		ctx.Source = f.path
	}
	ctx = ctx.withDefaults()

	evaluator := f.evaluator()
	engine := engineName(evaluator)
	start := time.Now()
	out, err := evaluator.Evaluate(ctx, expr)
	err = evaluationFailure(engine, expr, ctx.Source, err)
	f.cfg.logger.Log(LogEvent{
		Op:       "evaluate",
		Path:     f.path,
		Engine:   engine,
		Expr:     expr,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return Response[any]{}, err
	}
	return Response[any]{Value: out}, nil
}

// evaluator returns the configured engine, building the default expr
// engine from the file options on first use.
func (f *File) evaluator() Evaluator {
	if f.cfg.evaluator == nil {
		f.cfg.evaluator = NewExprEvaluator(
			EngineProgramCache(f.cfg.programCache),
			EngineFunctions(f.cfg.functions),
		)
	}
	return f.cfg.evaluator
}

func engineName(e Evaluator) string {
	if named, ok := e.(interface{ Engine() string }); ok {
		return named.Engine()
	}
	return "custom"
}
