package phpfile

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Normalize converts a Go value into a Value, deep-copying containers.
//
// Supported inputs are nil, bool, every integer and float kind, string,
// slices and arrays (as List), maps keyed by strings or integers (as *Map
// with keys sorted, so output is deterministic), and the Value container
// types themselves. Anything else yields ErrUnsupportedValue.
func Normalize(v any) (Value, error) {
	return normalize(v, "")
}

func normalize(v any, path string) (Value, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case bool, int64, float64, string:
		return c, nil
	case int:
		return int64(c), nil
	case int8:
		return int64(c), nil
	case int16:
		return int64(c), nil
	case int32:
		return int64(c), nil
	case uint:
		return normalizeUint(uint64(c), path)
	case uint8:
		return int64(c), nil
	case uint16:
		return int64(c), nil
	case uint32:
		return int64(c), nil
	case uint64:
		return normalizeUint(c, path)
	case float32:
		return float64(c), nil
	case List:
		out := make(List, len(c))
		for i, item := range c {
			n, err := normalize(item, indexPath(path, formatInt(int64(i))))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case *Map:
		if c == nil {
			return NewMap(0), nil
		}
		return normalizeMap(c, path)
	case *Object:
		if c == nil {
			return nil, nil
		}
		return normalizeObject(c, path)
	case Object:
		return normalizeObject(&c, path)
	case Exporter:
		return c, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem().Interface(), path)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return List{}, nil
		}
		out := make(List, rv.Len())
		for i := range rv.Len() {
			n, err := normalize(rv.Index(i).Interface(), indexPath(path, formatInt(int64(i))))
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		return normalizeNativeMap(rv, path)
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return normalizeUint(rv.Uint(), path)
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return nil, fmt.Errorf("%w: %T at %s", ErrUnsupportedValue, v, describePath(path))
}

func normalizeUint(n uint64, path string) (Value, error) {
	if n > math.MaxInt64 {
		return nil, fmt.Errorf("%w: unsigned integer %d overflows int64 at %s", ErrUnsupportedValue, n, describePath(path))
	}
	return int64(n), nil
}

func normalizeMap(m *Map, path string) (*Map, error) {
	out := NewMap(m.Len())
	var err error
	m.Range(func(key Key, value Value) bool {
		var n Value
		n, err = normalize(value, indexPath(path, key.String()))
		if err != nil {
			return false
		}
		out.Set(key, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeObject(o *Object, path string) (*Object, error) {
	if o.Type == "" {
		return nil, fmt.Errorf("%w: object without type name at %s", ErrUnsupportedValue, describePath(path))
	}
	fields := o.Fields
	if fields == nil {
		fields = NewMap(0)
	}
	normalized, err := normalizeMap(fields, path)
	if err != nil {
		return nil, err
	}
	return &Object{Type: o.Type, Fields: normalized}, nil
}

func normalizeNativeMap(rv reflect.Value, path string) (*Map, error) {
	type entry struct {
		key   Key
		value reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		rawKey := iter.Key()
		if rawKey.Kind() == reflect.Interface && !rawKey.IsNil() {
			rawKey = rawKey.Elem()
		}
		var key Key
		switch rawKey.Kind() {
		case reflect.String:
			key = StringKey(rawKey.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			key = IntKey(rawKey.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			k, ok := uintKey(rawKey.Uint())
			if !ok {
				return nil, fmt.Errorf("%w: map key %d overflows int64 at %s", ErrUnsupportedValue, rawKey.Uint(), describePath(path))
			}
			key = k
		default:
			return nil, fmt.Errorf("%w: map key of type %s at %s", ErrUnsupportedValue, rawKey.Type(), describePath(path))
		}
		entries = append(entries, entry{key: key, value: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key.less(entries[j].key)
	})

	out := NewMap(len(entries))
	for _, e := range entries {
		n, err := normalize(e.value.Interface(), indexPath(path, e.key.String()))
		if err != nil {
			return nil, err
		}
		out.Set(e.key, n)
	}
	return out, nil
}

func indexPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func describePath(path string) string {
	if path == "" {
		return "<root>"
	}
	return fmt.Sprintf("%q", path)
}

// copyObjects deep-copies a normalized value. Host Exporters are replaced
// by a copy of the Object they export, and every Object (fields already
// copied) is passed through object, whose result takes its place.
func copyObjects(v Value, object func(*Object) (Value, error)) (Value, error) {
	switch c := v.(type) {
	case List:
		out := make(List, len(c))
		for i, item := range c {
			copied, err := copyObjects(item, object)
			if err != nil {
				return nil, err
			}
			out[i] = copied
		}
		return out, nil
	case *Map:
		out := NewMap(c.Len())
		var err error
		c.Range(func(key Key, item Value) bool {
			var copied Value
			copied, err = copyObjects(item, object)
			if err != nil {
				return false
			}
			out.Set(key, copied)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	case *Object:
		if c == nil {
			return nil, nil
		}
		fields, err := copyObjects(c.Fields, object)
		if err != nil {
			return nil, err
		}
		return object(&Object{Type: c.Type, Fields: fields.(*Map)})
	case Exporter:
		exported := c.ExportObject()
		if exported == nil {
			return nil, nil
		}
		normalized, err := normalizeObject(exported, "")
		if err != nil {
			return nil, err
		}
		return copyObjects(normalized, object)
	default:
		return v, nil
	}
}

// detach returns a copy of a normalized value that shares nothing with
// host types: every Exporter is held as the Object it exported.
func detach(v Value) (Value, error) {
	return copyObjects(v, func(o *Object) (Value, error) { return o, nil })
}
