package phpfile

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celMaxArity bounds the overloads declared for each function; CEL has
// no variadic calls.
const celMaxArity = 4

// CELEvaluator runs queries with github.com/google/cel-go.
//
// Every bound variable is declared as dyn (now as a timestamp), so
// programs are compiled per set of variable names. Functions whose names
// are CEL identifiers are declared with one to four dyn arguments; any
// function is reachable through `call("name")` or `call("name", [args])`.
type CELEvaluator struct {
	engine
}

// NewCELEvaluator returns a cel-go backed Evaluator.
func NewCELEvaluator(opts ...EngineOption) *CELEvaluator {
	return &CELEvaluator{engine: newEngine("cel", opts)}
}

func (e *CELEvaluator) Evaluate(ctx QueryContext, expr string) (any, error) {
	q, err := e.Compile(expr)
	if err != nil {
		return nil, e.fail(expr, ctx.Source, err)
	}
	return q.Evaluate(ctx)
}

// Compile only parses expr. Type checking needs the variable names, so
// it happens on the first evaluation against each shape of value.
func (e *CELEvaluator) Compile(expr string) (Query, error) {
	if err := e.checkExpression(expr); err != nil {
		return nil, err
	}
	env, err := e.env(nil)
	if err != nil {
		return nil, e.fail(expr, "", err)
	}
	if _, issues := env.Parse(expr); issues != nil && issues.Err() != nil {
		return nil, e.fail(expr, "", issues.Err())
	}
	return &query{expr: expr, run: func(ctx QueryContext) (any, error) {
		vars := ctx.variables()
		prg, err := e.program(expr, vars)
		if err != nil {
			return nil, e.fail(expr, ctx.Source, err)
		}
		out, _, err := prg.Eval(vars)
		if err != nil {
			return nil, e.fail(expr, ctx.Source, err)
		}
		return out.Value(), nil
	}}, nil
}

func (e *CELEvaluator) program(expr string, vars map[string]any) (celgo.Program, error) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		if celIdentifier(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	key := strings.Join(names, ",") + ":" + expr

	return program(e.engine, key, func() (celgo.Program, error) {
		env, err := e.env(names)
		if err != nil {
			return nil, err
		}
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, issues.Err()
		}
		return env.Program(ast)
	})
}

func (e *CELEvaluator) env(names []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{e.callFunction()}
	for _, name := range e.functions.Names() {
		if celIdentifier(name) {
			opts = append(opts, e.namedFunction(name))
		}
	}
	for _, name := range names {
		if name == "now" {
			opts = append(opts, celgo.Variable(name, celgo.TimestampType))
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

// namedFunction declares name(dyn, ...) for one to celMaxArity arguments.
func (e *CELEvaluator) namedFunction(name string) celgo.EnvOption {
	overloads := make([]celgo.FunctionOpt, 0, celMaxArity)
	for arity := 1; arity <= celMaxArity; arity++ {
		params := make([]*celgo.Type, arity)
		for i := range params {
			params[i] = celgo.DynType
		}
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("phpfile_%s_%d", strings.ToLower(name), arity),
			params,
			celgo.DynType,
			e.binding(name, arity),
		))
	}
	return celgo.Function(name, overloads...)
}

func (e *CELEvaluator) binding(name string, arity int) celgo.OverloadOpt {
	switch arity {
	case 1:
		return celgo.UnaryBinding(func(arg ref.Val) ref.Val {
			return e.invoke(name, celNatives([]ref.Val{arg}))
		})
	case 2:
		return celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
			return e.invoke(name, celNatives([]ref.Val{lhs, rhs}))
		})
	default:
		return celgo.FunctionBinding(func(args ...ref.Val) ref.Val {
			return e.invoke(name, celNatives(args))
		})
	}
}

func (e *CELEvaluator) callFunction() celgo.EnvOption {
	return celgo.Function("call",
		celgo.Overload("phpfile_call_string",
			[]*celgo.Type{celgo.StringType},
			celgo.DynType,
			celgo.UnaryBinding(func(name ref.Val) ref.Val {
				return e.invoke(fmt.Sprint(name.Value()), nil)
			}),
		),
		celgo.Overload("phpfile_call_string_list",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.BinaryBinding(func(name, list ref.Val) ref.Val {
				native, err := list.ConvertToNative(reflect.TypeOf([]any{}))
				if err != nil {
					return types.NewErr("call arguments: %v", err)
				}
				args, _ := native.([]any)
				return e.invoke(fmt.Sprint(name.Value()), args)
			}),
		),
	)
}

func (e *CELEvaluator) invoke(name string, args []any) ref.Val {
	out, err := e.functions.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if out == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(out)
}

func celNatives(args []ref.Val) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		if arg == nil || arg == types.NullValue {
			continue
		}
		out[i] = arg.Value()
	}
	return out
}

var celReserved = map[string]bool{
	"true": true, "false": true, "null": true, "in": true, "as": true,
	"break": true, "const": true, "continue": true, "else": true,
	"for": true, "function": true, "if": true, "import": true, "let": true,
	"loop": true, "package": true, "namespace": true, "return": true,
	"var": true, "void": true, "while": true, "call": true,
}

// celIdentifier reports whether name can be declared in a CEL env.
func celIdentifier(name string) bool {
	if name == "" || celReserved[name] {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
