package phpfile

import "strings"

// FieldDescriptor describes a leaf path and the kind of value stored there.
type FieldDescriptor struct {
	Path string
	Kind string
}

// Describe flattens v into one descriptor per leaf, in key order. Nested
// map and object keys are joined with "."; lists are leaves typed by their
// first element, e.g. "list<string>". Empty maps and objects are reported
// as leaves of their own kind.
func Describe(v Value) []FieldDescriptor {
	fields := describe(v, "")
	if fields == nil {
		fields = []FieldDescriptor{}
	}
	return fields
}

// Fields describes the data held by f. See Describe.
func (f *File) Fields() ([]FieldDescriptor, error) {
	value, err := f.Get()
	if err != nil {
		return nil, err
	}
	return Describe(value), nil
}

func describe(value Value, prefix string) []FieldDescriptor {
	switch typed := value.(type) {
	case *Map:
		if typed.Len() == 0 {
			return []FieldDescriptor{{Path: prefix, Kind: "map"}}
		}
		if typed.IsList() {
			return []FieldDescriptor{{Path: prefix, Kind: listKind(typed.entryValues())}}
		}
		return describeEntries(typed, prefix)
	case *Object:
		if typed == nil || typed.Fields.Len() == 0 {
			return []FieldDescriptor{{Path: prefix, Kind: Kind(typed)}}
		}
		return describeEntries(typed.Fields, prefix)
	case List:
		return []FieldDescriptor{{Path: prefix, Kind: listKind(typed)}}
	default:
		if prefix == "" {
			return nil
		}
		return []FieldDescriptor{{Path: prefix, Kind: Kind(typed)}}
	}
}

func describeEntries(m *Map, prefix string) []FieldDescriptor {
	var fields []FieldDescriptor
	m.Range(func(key Key, value Value) bool {
		fields = append(fields, describe(value, joinPath(prefix, key.String()))...)
		return true
	})
	return fields
}

func listKind(items []Value) string {
	if len(items) == 0 {
		return "list"
	}
	return "list<" + Kind(items[0]) + ">"
}

func (m *Map) entryValues() []Value {
	out := make([]Value, 0, m.Len())
	m.Range(func(_ Key, value Value) bool {
		out = append(out, value)
		return true
	})
	return out
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
