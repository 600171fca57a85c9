package phpfile

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Builtin query functions, available in every engine next to the
// functions of a FunctionRegistry:
//
//	dig(v, "db.replicas.0.host")  value at a dot path, or null
//	defined(v, "db.port")         whether the dot path resolves
//	kind(v)                       null, bool, int, float, string, list or map
//
// Registered functions with the same name take precedence.
var builtins = map[string]Function{
	"dig":     builtinDig,
	"defined": builtinDefined,
	"kind":    builtinKind,
}

func builtinDig(args ...any) (any, error) {
	v, path, err := pathArgs("dig", args)
	if err != nil {
		return nil, err
	}
	out, _ := dig(v, path)
	return out, nil
}

func builtinDefined(args ...any) (any, error) {
	v, path, err := pathArgs("defined", args)
	if err != nil {
		return nil, err
	}
	_, ok := dig(v, path)
	return ok, nil
}

func builtinKind(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("kind expects 1 argument, got %d", len(args))
	}
	return nativeKind(args[0]), nil
}

func pathArgs(name string, args []any) (any, string, error) {
	if len(args) != 2 {
		return nil, "", fmt.Errorf("%s expects 2 arguments, got %d", name, len(args))
	}
	path, ok := args[1].(string)
	if !ok {
		return nil, "", fmt.Errorf("%s: path must be a string, got %T", name, args[1])
	}
	return args[0], path, nil
}

// dig walks a native value along a dot separated path. Numeric segments
// index lists. An empty path returns v itself.
func dig(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}
	current := v
	for _, segment := range strings.Split(path, ".") {
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func step(v any, segment string) (any, bool) {
	switch c := v.(type) {
	case map[string]any:
		out, ok := c[segment]
		return out, ok
	case []any:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	case nil:
		return nil, false
	}

	// Engines hand back their own container types; fall back to reflection.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		item := rv.MapIndex(reflect.ValueOf(segment).Convert(rv.Type().Key()))
		if !item.IsValid() {
			return nil, false
		}
		return item.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

// nativeKind classifies native values the way Kind classifies stored
// ones. Objects are already flattened to maps by Native.
func nativeKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "map"
	}
	return fmt.Sprintf("%T", v)
}

// queryFunctions merges the builtins with custom. The result is never nil.
func queryFunctions(custom *FunctionRegistry) *FunctionRegistry {
	out := custom.Clone()
	if out == nil {
		out = NewFunctionRegistry()
	}
	for name, fn := range builtins {
		if _, ok := out.lookup(name); ok {
			continue
		}
		_ = out.Register(name, fn)
	}
	return out
}
