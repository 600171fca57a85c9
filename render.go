package phpfile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// OpenTag starts every stored file.
	OpenTag = "<?php"

	indentUnit = "  "
	dataKey    = "__data"
	setState   = "__set_state"
)

// Render returns the literal expression for v at indent level 0.
func Render(v any) (string, error) {
	return RenderIndent(v, 0)
}

// RenderIndent returns the literal expression for v with nested lines
// indented for the given level. The first line is never indented, so the
// result can follow a key or a return statement.
func RenderIndent(v any, level int) (string, error) {
	if level < 0 {
		level = 0
	}
	value, err := Normalize(v)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := writeValue(&b, value, level); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderFile returns the complete file content for v:
//
//	<?php
//
//	return <literal>;
func RenderFile(v any) ([]byte, error) {
	literal, err := Render(v)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.Grow(len(OpenTag) + len(literal) + 10)
	b.WriteString(OpenTag)
	b.WriteString("\n\nreturn ")
	b.WriteString(literal)
	b.WriteString(";")
	return []byte(b.String()), nil
}

func writeValue(b *strings.Builder, v Value, level int) error {
	switch c := v.(type) {
	case nil:
		b.WriteString("NULL")
	case bool:
		if c {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case int64:
		b.WriteString(intLiteral(c))
	case float64:
		b.WriteString(formatFloat(c))
	case string:
		writeString(b, c)
	case List:
		if len(c) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[\n")
		for i, item := range c {
			if err := writeEntry(b, IntKey(int64(i)), item, level+1); err != nil {
				return err
			}
		}
		writeIndent(b, level)
		b.WriteString("]")
	case *Map:
		if c.Len() == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[\n")
		var err error
		c.Range(func(key Key, value Value) bool {
			err = writeEntry(b, key, value, level+1)
			return err == nil
		})
		if err != nil {
			return err
		}
		writeIndent(b, level)
		b.WriteString("]")
	case *Object:
		return writeObject(b, c, level)
	case Exporter:
		exported := c.ExportObject()
		if exported == nil {
			return fmt.Errorf("%w: %T exported a nil object", ErrUnsupportedValue, v)
		}
		obj, err := normalizeObject(exported, "")
		if err != nil {
			return err
		}
		return writeObject(b, obj, level)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}

// writeEntry writes one "<key> => <value>," line at level. Scalars and
// empty containers stay on the key line; anything else opens on the next
// line at the same indent.
func writeEntry(b *strings.Builder, key Key, value Value, level int) error {
	writeIndent(b, level)
	writeKey(b, key)
	b.WriteString(" =>")
	if isInline(value) {
		b.WriteString(" ")
	} else {
		b.WriteString("\n")
		writeIndent(b, level)
	}
	if err := writeValue(b, value, level); err != nil {
		return err
	}
	b.WriteString(",\n")
	return nil
}

// writeObject emits Type::__set_state(['__data' => fields]). The __data line
// carries one extra space of indent, matching the reference layout.
func writeObject(b *strings.Builder, o *Object, level int) error {
	if o == nil {
		b.WriteString("NULL")
		return nil
	}
	b.WriteString(o.Type)
	b.WriteString("::")
	b.WriteString(setState)
	b.WriteString("([\n")
	writeIndent(b, level+1)
	b.WriteString(" ")
	writeString(b, dataKey)
	b.WriteString(" =>")
	fields := o.Fields
	if fields == nil {
		fields = NewMap(0)
	}
	if fields.Len() == 0 {
		b.WriteString(" ")
	} else {
		b.WriteString("\n")
		writeIndent(b, level+1)
	}
	if err := writeValue(b, fields, level+1); err != nil {
		return err
	}
	b.WriteString(",\n")
	writeIndent(b, level)
	b.WriteString("])")
	return nil
}

func isInline(v Value) bool {
	switch c := v.(type) {
	case List:
		return len(c) == 0
	case *Map:
		return c.Len() == 0
	case *Object, Exporter:
		return false
	default:
		return true
	}
}

func writeKey(b *strings.Builder, key Key) {
	if key.IsInt() {
		b.WriteString(intLiteral(key.Int()))
		return
	}
	writeString(b, key.String())
}

func writeIndent(b *strings.Builder, level int) {
	for range level {
		b.WriteString(indentUnit)
	}
}

// intLiteral spells math.MinInt64 as PHP_INT_MIN; its decimal form would
// read back as a float.
func intLiteral(n int64) string {
	if n == math.MinInt64 {
		return "PHP_INT_MIN"
	}
	return formatInt(n)
}

// writeString single-quotes s, escaping only backslashes and quotes.
func writeString(b *strings.Builder, s string) {
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '\'':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('\'')
}

// formatFloat prints the shortest representation that parses back to f,
// always with a decimal point or exponent so it never reads as an integer.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-4 && abs < 1e15) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(f, 'E', -1, 64)
	mantissa, exponent, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	sign := exponent[:1]
	digits := strings.TrimLeft(exponent[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "E" + sign + digits
}
