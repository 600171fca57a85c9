package phpfile

import (
	"math"
	"reflect"
	"strconv"
)

// Value is the in-memory form of a stored literal. The concrete types are:
//
//   - nil
//   - bool
//   - int64
//   - float64
//   - string
//   - List
//   - *Map
//   - *Object
//   - any type implementing Exporter (usually produced by a registered Factory)
//
// Use Normalize to convert arbitrary Go values into this set.
type Value = any

// List is an ordered list. It renders with implicit zero-based indexes.
type List []Value

// Object is a value rebuilt through a named factory from a flat field map.
type Object struct {
	Type   string
	Fields *Map
}

// NewObject returns an Object of the given type. A nil fields map is
// replaced by an empty one.
func NewObject(typeName string, fields *Map) *Object {
	if fields == nil {
		fields = NewMap(0)
	}
	return &Object{Type: typeName, Fields: fields}
}

// ExportObject implements Exporter.
func (o *Object) ExportObject() *Object {
	return o
}

// Exporter is implemented by host types that persist as objects. The
// returned Object must be reconstructable by the Factory registered under
// its Type. A File never holds a host value itself: it keeps a copy of the
// exported Object and calls the Factory again on each Get.
type Exporter interface {
	ExportObject() *Object
}

// Equal reports whether a and b are structurally equal. Integers and floats
// never compare equal to each other, a List equals a Map holding the same
// entries under the keys 0..n-1, and NaN equals NaN.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		return av == bv || (math.IsNaN(av) && math.IsNaN(bv))
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case List, *Map:
		return equalContainers(a, b)
	case *Object:
		bo, ok := b.(*Object)
		if !ok {
			if exp, isExporter := b.(Exporter); isExporter && !isContainer(b) {
				bo = exp.ExportObject()
				ok = bo != nil
			}
		}
		if !ok || av == nil || bo == nil {
			return ok && av == bo
		}
		return av.Type == bo.Type && equalContainers(av.Fields, bo.Fields)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func isContainer(v Value) bool {
	switch v.(type) {
	case List, *Map:
		return true
	}
	return false
}

func equalContainers(a, b Value) bool {
	left, ok := entriesOf(a)
	if !ok {
		return false
	}
	right, ok := entriesOf(b)
	if !ok {
		return false
	}
	if left.Len() != right.Len() {
		return false
	}
	equal := true
	left.Range(func(key Key, value Value) bool {
		other, found := right.Get(key)
		if !found || !Equal(value, other) {
			equal = false
		}
		return equal
	})
	if !equal {
		return false
	}
	lk, rk := left.Keys(), right.Keys()
	for i := range lk {
		if lk[i] != rk[i] {
			return false
		}
	}
	return true
}

func entriesOf(v Value) (*Map, bool) {
	switch c := v.(type) {
	case List:
		m := NewMap(len(c))
		for _, item := range c {
			m.Append(item)
		}
		return m, true
	case *Map:
		if c == nil {
			return NewMap(0), true
		}
		return c, true
	default:
		return nil, false
	}
}

// Clone returns a deep copy of v. Host types are returned as-is.
func Clone(v Value) Value {
	switch c := v.(type) {
	case List:
		if c == nil {
			return List{}
		}
		out := make(List, len(c))
		for i, item := range c {
			out[i] = Clone(item)
		}
		return out
	case *Map:
		if c == nil {
			return NewMap(0)
		}
		return c.Clone()
	case *Object:
		if c == nil {
			return c
		}
		return &Object{Type: c.Type, Fields: c.Fields.Clone()}
	default:
		return v
	}
}

// Native converts v into plain Go values suitable for expression engines
// and JSON: List becomes []any, Map and Object fields become
// map[string]any (integer keys are formatted in decimal). Host types are
// returned unchanged.
func Native(v Value) any {
	switch c := v.(type) {
	case List:
		out := make([]any, len(c))
		for i, item := range c {
			out[i] = Native(item)
		}
		return out
	case *Map:
		if c.IsList() && c.Len() > 0 {
			out := make([]any, 0, c.Len())
			c.Range(func(_ Key, value Value) bool {
				out = append(out, Native(value))
				return true
			})
			return out
		}
		out := make(map[string]any, c.Len())
		c.Range(func(key Key, value Value) bool {
			out[key.String()] = Native(value)
			return true
		})
		return out
	case *Object:
		if c == nil {
			return nil
		}
		return Native(c.Fields)
	default:
		return v
	}
}

// Kind names the variant held by v, for diagnostics.
func Kind(v Value) string {
	switch c := v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case List:
		return "list"
	case *Map:
		return "map"
	case *Object:
		if c == nil {
			return "object"
		}
		return "object(" + c.Type + ")"
	default:
		return "host(" + reflect.TypeOf(v).String() + ")"
	}
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
