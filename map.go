package phpfile

import (
	"math"
	"strconv"
)

// Key is a mapping key. Keys are either integers or strings; strings that
// look like canonical decimal integers are stored as integers, matching how
// PHP arrays coerce their offsets.
type Key struct {
	str   string
	num   int64
	isInt bool
}

// IntKey returns an integer key.
func IntKey(n int64) Key {
	return Key{num: n, isInt: true}
}

// StringKey returns a string key, or an integer key when s is a canonical
// decimal integer ("12", "-3" but not "012", "-0" or "+1").
func StringKey(s string) Key {
	if n, ok := integerString(s); ok {
		return IntKey(n)
	}
	return Key{str: s}
}

// IsInt reports whether k is an integer key.
func (k Key) IsInt() bool { return k.isInt }

// Int returns the integer value of k. It is zero for string keys.
func (k Key) Int() int64 { return k.num }

// String returns the key as text.
func (k Key) String() string {
	if k.isInt {
		return strconv.FormatInt(k.num, 10)
	}
	return k.str
}

// less orders integer keys before string keys.
func (k Key) less(other Key) bool {
	if k.isInt != other.isInt {
		return k.isInt
	}
	if k.isInt {
		return k.num < other.num
	}
	return k.str < other.str
}

func integerString(s string) (int64, bool) {
	if s == "" || len(s) > 20 {
		return 0, false
	}
	digits := s
	if s[0] == '-' {
		digits = s[1:]
	}
	if digits == "" {
		return 0, false
	}
	if digits[0] == '0' && (len(digits) > 1 || s[0] == '-') {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Map is an insertion-ordered mapping from Key to Value.
type Map struct {
	keys    []Key
	values  []Value
	index   map[Key]int
	next    int64
	hasNext bool
}

// NewMap returns an empty Map with room for size entries.
func NewMap(size int) *Map {
	if size < 0 {
		size = 0
	}
	return &Map{
		keys:   make([]Key, 0, size),
		values: make([]Value, 0, size),
		index:  make(map[Key]int, size),
	}
}

// MapOf builds a Map from alternating key/value arguments. Keys may be any
// integer kind, a string or a Key; values are normalized. It panics on an
// odd argument count, an unsupported key type or a value Normalize rejects,
// so it is meant for literals in code and tests.
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("phpfile: MapOf requires key/value pairs")
	}
	m := NewMap(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := toKey(kv[i])
		if !ok {
			panic("phpfile: MapOf unsupported key type")
		}
		value, err := Normalize(kv[i+1])
		if err != nil {
			panic(err)
		}
		m.Set(key, value)
	}
	return m
}

func toKey(raw any) (Key, bool) {
	switch k := raw.(type) {
	case Key:
		return k, true
	case string:
		return StringKey(k), true
	case int:
		return IntKey(int64(k)), true
	case int8:
		return IntKey(int64(k)), true
	case int16:
		return IntKey(int64(k)), true
	case int32:
		return IntKey(int64(k)), true
	case int64:
		return IntKey(k), true
	case uint:
		return uintKey(uint64(k))
	case uint8:
		return IntKey(int64(k)), true
	case uint16:
		return IntKey(int64(k)), true
	case uint32:
		return IntKey(int64(k)), true
	case uint64:
		return uintKey(k)
	default:
		return Key{}, false
	}
}

func uintKey(n uint64) (Key, bool) {
	if n > math.MaxInt64 {
		return Key{}, false
	}
	return IntKey(int64(n)), true
}

func (m *Map) init() {
	if m.index == nil {
		m.index = make(map[Key]int)
	}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Set stores value under key, keeping the original position when key is
// already present.
func (m *Map) Set(key Key, value Value) *Map {
	m.init()
	if i, ok := m.index[key]; ok {
		m.values[i] = value
		return m
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	if key.isInt && (!m.hasNext || key.num >= m.next) {
		if key.num < math.MaxInt64 {
			m.next = key.num + 1
		} else {
			m.next = key.num
		}
		m.hasNext = true
	}
	return m
}

// SetString is shorthand for Set(StringKey(name), value).
func (m *Map) SetString(name string, value Value) *Map {
	return m.Set(StringKey(name), value)
}

// Append stores value under the next free integer index: one past the
// largest integer key seen so far, or 0.
func (m *Map) Append(value Value) *Map {
	return m.Set(IntKey(m.nextIndex()), value)
}

func (m *Map) nextIndex() int64 {
	if m == nil || !m.hasNext {
		return 0
	}
	if m.next < 0 {
		return 0
	}
	return m.next
}

// Get returns the value stored under key.
func (m *Map) Get(key Key) (Value, bool) {
	if m == nil || m.index == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.values[i], true
}

// Lookup is shorthand for Get(StringKey(name)).
func (m *Map) Lookup(name string) (Value, bool) {
	return m.Get(StringKey(name))
}

// Delete removes key, preserving the order of the remaining entries.
func (m *Map) Delete(key Key) bool {
	if m == nil || m.index == nil {
		return false
	}
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
	return true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Key {
	if m == nil {
		return nil
	}
	return append([]Key(nil), m.keys...)
}

// Range calls fn for every entry in insertion order until fn returns false.
func (m *Map) Range(fn func(Key, Value) bool) {
	if m == nil {
		return
	}
	for i, key := range m.keys {
		if !fn(key, m.values[i]) {
			return
		}
	}
}

// IsList reports whether the keys are exactly 0..n-1 in order.
func (m *Map) IsList() bool {
	if m == nil {
		return true
	}
	for i, key := range m.keys {
		if !key.isInt || key.num != int64(i) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := NewMap(len(m.keys))
	for i, key := range m.keys {
		out.Set(key, Clone(m.values[i]))
	}
	out.next, out.hasNext = m.next, m.hasNext
	return out
}
