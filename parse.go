package phpfile

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Parser reads literal files produced by RenderFile, and hand-written files
// restricted to the same literal grammar. It never executes code: the only
// calls it accepts are Type::__set_state(...), resolved through the
// FactoryRegistry.
type Parser struct {
	factories *FactoryRegistry
}

// NewParser returns a Parser resolving object literals through factories.
// A nil registry rejects every object literal with ErrUnregisteredFactory.
func NewParser(factories *FactoryRegistry) *Parser {
	return &Parser{factories: factories}
}

// Parse is shorthand for NewParser(factories).ParseFile(src).
func Parse(src []byte, factories *FactoryRegistry) (Value, error) {
	return NewParser(factories).ParseFile(src)
}

// ParseFile parses "<?php return <literal>;" with any surrounding
// whitespace and comments, and an optional closing "?>".
func (p *Parser) ParseFile(src []byte) (Value, error) {
	s := p.scanner(src)
	s.skipBOM()
	for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
		s.pos++
	}
	if !s.consumeFold(OpenTag) {
		return nil, s.errorf(s.pos, "expected %q open tag", OpenTag)
	}
	if s.pos >= len(s.src) || !isSpace(s.src[s.pos]) {
		return nil, s.errorf(s.pos, "expected whitespace after open tag")
	}
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	start := s.pos
	word := s.identifier()
	if !strings.EqualFold(word, "return") {
		return nil, s.errorf(start, "expected return statement")
	}
	value, err := s.expression()
	if err != nil {
		return nil, err
	}
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	if !s.consume(";") {
		return nil, s.errorf(s.pos, "expected ';' after literal")
	}
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	if s.consume("?>") {
		for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
			s.pos++
		}
	}
	if s.pos < len(s.src) {
		return nil, s.errorf(s.pos, "unexpected content after return statement")
	}
	return value, nil
}

// ParseLiteral parses a bare literal expression such as the output of
// Render.
func (p *Parser) ParseLiteral(src []byte) (Value, error) {
	s := p.scanner(src)
	value, err := s.expression()
	if err != nil {
		return nil, err
	}
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	if s.pos < len(s.src) {
		return nil, s.errorf(s.pos, "unexpected content after literal")
	}
	return value, nil
}

func (p *Parser) scanner(src []byte) *scanner {
	return &scanner{src: src, factories: p.factories}
}

type scanner struct {
	src       []byte
	pos       int
	factories *FactoryRegistry
}

func (s *scanner) errorf(offset int, format string, args ...any) *SyntaxError {
	line, col := position(s.src, offset)
	return &SyntaxError{Offset: offset, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (s *scanner) wrap(offset int, err error, format string, args ...any) *SyntaxError {
	e := s.errorf(offset, format, args...)
	e.Err = err
	return e
}

func position(src []byte, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line := bytes.Count(before, []byte{'\n'}) + 1
	lineStart := bytes.LastIndexByte(before, '\n') + 1
	return line, utf8.RuneCount(before[lineStart:]) + 1
}

func (s *scanner) skipBOM() {
	if bytes.HasPrefix(s.src, []byte("\xef\xbb\xbf")) {
		s.pos = 3
	}
}

func (s *scanner) peek() byte {
	if s.pos < len(s.src) {
		return s.src[s.pos]
	}
	return 0
}

func (s *scanner) consume(token string) bool {
	if bytes.HasPrefix(s.src[s.pos:], []byte(token)) {
		s.pos += len(token)
		return true
	}
	return false
}

func (s *scanner) consumeFold(token string) bool {
	end := s.pos + len(token)
	if end > len(s.src) || !strings.EqualFold(string(s.src[s.pos:end]), token) {
		return false
	}
	s.pos = end
	return true
}

// skipSpace skips whitespace and //, # and /* */ comments.
func (s *scanner) skipSpace() error {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == '#' || (c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/'):
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '*':
			start := s.pos
			end := bytes.Index(s.src[s.pos+2:], []byte("*/"))
			if end < 0 {
				return s.errorf(start, "unterminated comment")
			}
			s.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func (s *scanner) expression() (Value, error) {
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	start := s.pos
	c := s.peek()
	switch {
	case s.pos >= len(s.src):
		return nil, s.errorf(start, "unexpected end of input")
	case c == '[':
		s.pos++
		return s.array(']')
	case c == '\'':
		return s.singleQuoted()
	case c == '"':
		return s.doubleQuoted()
	case c == '-' || c == '+':
		s.pos++
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		return s.signed(start, c == '-')
	case isDigit(c) || (c == '.' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1])):
		return s.number(false)
	case isNameStart(c):
		return s.named()
	default:
		return nil, s.errorf(start, "unexpected character %q", rune(c))
	}
}

func (s *scanner) signed(start int, negative bool) (Value, error) {
	c := s.peek()
	if isDigit(c) || c == '.' {
		return s.number(negative)
	}
	value, err := s.named()
	if err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case int64:
		if negative {
			return -v, nil
		}
		return v, nil
	case float64:
		if negative {
			return -v, nil
		}
		return v, nil
	default:
		return nil, s.errorf(start, "sign applied to non-numeric %s", Kind(value))
	}
}

// named handles keywords, constants, array(...) and Type::__set_state(...).
func (s *scanner) named() (Value, error) {
	start := s.pos
	name := s.qualifiedName()
	bare := strings.TrimPrefix(name, `\`)
	if !strings.Contains(bare, `\`) {
		switch strings.ToLower(bare) {
		case "null":
			return nil, nil
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "nan":
			return math.NaN(), nil
		case "inf":
			return math.Inf(1), nil
		case "php_int_max":
			return int64(math.MaxInt64), nil
		case "php_int_min":
			return int64(math.MinInt64), nil
		case "array":
			if err := s.skipSpace(); err != nil {
				return nil, err
			}
			if !s.consume("(") {
				return nil, s.errorf(s.pos, "expected '(' after array")
			}
			return s.array(')')
		}
	}

	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	if !s.consume("::") {
		return nil, s.errorf(start, "unknown constant %q", name)
	}
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	methodAt := s.pos
	if method := s.identifier(); !strings.EqualFold(method, setState) {
		return nil, s.errorf(methodAt, "unsupported static call %s::%s", bare, method)
	}
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	if !s.consume("(") {
		return nil, s.errorf(s.pos, "expected '(' after %s", setState)
	}
	argAt := s.pos
	arg, err := s.expression()
	if err != nil {
		return nil, err
	}
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	s.consume(",")
	if err := s.skipSpace(); err != nil {
		return nil, err
	}
	if !s.consume(")") {
		return nil, s.errorf(s.pos, "expected ')' to close %s", setState)
	}
	fields, ok := entriesOf(arg)
	if !ok {
		return nil, s.errorf(argAt, "%s expects an array argument, got %s", setState, Kind(arg))
	}
	if fields.Len() == 1 {
		if inner, found := fields.Lookup(dataKey); found {
			if unwrapped, isContainer := entriesOf(inner); isContainer {
				fields = unwrapped
			}
		}
	}
	return s.build(start, bare, fields)
}

func (s *scanner) build(offset int, typeName string, fields *Map) (Value, error) {
	factory, ok := s.factories.Lookup(typeName)
	if !ok {
		return nil, s.wrap(offset, ErrUnregisteredFactory, "object of type %q", typeName)
	}
	value, err := factory(fields)
	if err != nil {
		return nil, s.wrap(offset, err, "factory %q failed", typeName)
	}
	return value, nil
}

func (s *scanner) array(closing byte) (Value, error) {
	entries := NewMap(0)
	for {
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		if s.pos >= len(s.src) {
			return nil, s.errorf(s.pos, "unterminated array")
		}
		if s.peek() == closing {
			s.pos++
			break
		}
		keyAt := s.pos
		first, err := s.expression()
		if err != nil {
			return nil, err
		}
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		if s.consume("=>") {
			value, err := s.expression()
			if err != nil {
				return nil, err
			}
			key, err := coerceKey(first)
			if err != nil {
				return nil, s.wrap(keyAt, err, "invalid array key")
			}
			entries.Set(key, value)
		} else {
			entries.Append(first)
		}
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		if s.consume(",") {
			continue
		}
		if s.peek() == closing {
			s.pos++
			break
		}
		return nil, s.errorf(s.pos, "expected ',' or %q in array", rune(closing))
	}
	if entries.IsList() {
		list := make(List, 0, entries.Len())
		entries.Range(func(_ Key, value Value) bool {
			list = append(list, value)
			return true
		})
		return list, nil
	}
	return entries, nil
}

// coerceKey applies PHP's array offset rules.
func coerceKey(v Value) (Key, error) {
	switch k := v.(type) {
	case int64:
		return IntKey(k), nil
	case string:
		return StringKey(k), nil
	case bool:
		if k {
			return IntKey(1), nil
		}
		return IntKey(0), nil
	case nil:
		return StringKey(""), nil
	case float64:
		if math.IsNaN(k) || math.IsInf(k, 0) || k >= math.MaxInt64 || k < math.MinInt64 {
			return Key{}, fmt.Errorf("%w: float key %v", ErrUnsupportedValue, k)
		}
		return IntKey(int64(k)), nil
	default:
		return Key{}, fmt.Errorf("%w: %s key", ErrUnsupportedValue, Kind(v))
	}
}

func (s *scanner) number(negative bool) (Value, error) {
	start := s.pos
	if s.peek() == '0' && s.pos+1 < len(s.src) {
		base := 0
		switch s.src[s.pos+1] {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 0 {
			s.pos += 2
			digits := s.scanWhile(func(c byte) bool { return isHexDigit(c) || c == '_' })
			return s.integer(start, digits, base, negative)
		}
	}

	s.scanWhile(func(c byte) bool { return isDigit(c) || c == '_' })
	isFloat := false
	if s.peek() == '.' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1]) {
		isFloat = true
		s.pos++
		s.scanWhile(func(c byte) bool { return isDigit(c) || c == '_' })
	} else if s.peek() == '.' && !(s.pos+1 < len(s.src) && s.src[s.pos+1] == '.') {
		isFloat = true
		s.pos++
	}
	if c := s.peek(); c == 'e' || c == 'E' {
		mark := s.pos
		s.pos++
		if c := s.peek(); c == '+' || c == '-' {
			s.pos++
		}
		if isDigit(s.peek()) {
			isFloat = true
			s.scanWhile(isDigit)
		} else {
			s.pos = mark
		}
	}
	if isNamePart(s.peek()) {
		return nil, s.errorf(s.pos, "invalid numeric literal")
	}
	text := strings.ReplaceAll(string(s.src[start:s.pos]), "_", "")
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, s.wrap(start, err, "invalid float literal %q", text)
		}
		if negative {
			f = -f
		}
		return f, nil
	}
	if len(text) > 1 && text[0] == '0' {
		return s.integer(start, text[1:], 8, negative)
	}
	return s.integer(start, text, 10, negative)
}

// integer parses digits in base. Values beyond int64 become floats, the
// way PHP widens overflowing integer literals.
func (s *scanner) integer(start int, digits string, base int, negative bool) (Value, error) {
	if isNamePart(s.peek()) {
		return nil, s.errorf(s.pos, "invalid numeric literal")
	}
	digits = strings.ReplaceAll(digits, "_", "")
	if digits == "" {
		return nil, s.errorf(start, "invalid numeric literal")
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			f, ferr := parseWideInteger(digits, base)
			if ferr != nil {
				return nil, s.wrap(start, ferr, "invalid integer literal")
			}
			if negative {
				f = -f
			}
			return f, nil
		}
		return nil, s.wrap(start, err, "invalid integer literal")
	}
	switch {
	case negative && u == 1<<63:
		return int64(math.MinInt64), nil
	case u > math.MaxInt64:
		f := float64(u)
		if negative {
			f = -f
		}
		return f, nil
	case negative:
		return -int64(u), nil
	default:
		return int64(u), nil
	}
}

func parseWideInteger(digits string, base int) (float64, error) {
	var f float64
	for i := 0; i < len(digits); i++ {
		d, err := strconv.ParseUint(digits[i:i+1], base, 8)
		if err != nil {
			return 0, err
		}
		f = f*float64(base) + float64(d)
	}
	return f, nil
}

func (s *scanner) singleQuoted() (Value, error) {
	start := s.pos
	s.pos++
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case '\'':
			s.pos++
			return b.String(), nil
		case '\\':
			if s.pos+1 < len(s.src) && (s.src[s.pos+1] == '\'' || s.src[s.pos+1] == '\\') {
				b.WriteByte(s.src[s.pos+1])
				s.pos += 2
				continue
			}
		}
		b.WriteByte(c)
		s.pos++
	}
	return nil, s.errorf(start, "unterminated string")
}

func (s *scanner) doubleQuoted() (Value, error) {
	start := s.pos
	s.pos++
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case '"':
			s.pos++
			return b.String(), nil
		case '$':
			if s.pos+1 < len(s.src) && (isNameStart(s.src[s.pos+1]) || s.src[s.pos+1] == '{') {
				return nil, s.errorf(s.pos, "variable interpolation is not supported")
			}
		case '\\':
			if s.pos+1 >= len(s.src) {
				break
			}
			if n := s.escape(&b); n > 0 {
				s.pos += n
				continue
			}
		}
		b.WriteByte(c)
		s.pos++
	}
	return nil, s.errorf(start, "unterminated string")
}

// escape decodes the double-quoted escape sequence at s.pos into b and
// returns its length, or 0 when the backslash is literal.
func (s *scanner) escape(b *strings.Builder) int {
	rest := s.src[s.pos+1:]
	switch rest[0] {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'v':
		b.WriteByte('\v')
	case 'e':
		b.WriteByte(0x1b)
	case 'f':
		b.WriteByte('\f')
	case '\\', '$', '"':
		b.WriteByte(rest[0])
	case 'x':
		n := 0
		for n < 2 && n+1 < len(rest) && isHexDigit(rest[n+1]) {
			n++
		}
		if n == 0 {
			return 0
		}
		v, _ := strconv.ParseUint(string(rest[1:n+1]), 16, 8)
		b.WriteByte(byte(v))
		return n + 2
	case 'u':
		if len(rest) < 2 || rest[1] != '{' {
			return 0
		}
		end := bytes.IndexByte(rest, '}')
		if end < 0 {
			return 0
		}
		v, err := strconv.ParseUint(string(rest[2:end]), 16, 32)
		if err != nil {
			return 0
		}
		b.WriteRune(rune(v))
		return end + 2
	default:
		if rest[0] >= '0' && rest[0] <= '7' {
			n := 1
			for n < 3 && n < len(rest) && rest[n] >= '0' && rest[n] <= '7' {
				n++
			}
			v, _ := strconv.ParseUint(string(rest[:n]), 8, 16)
			b.WriteByte(byte(v))
			return n + 1
		}
		return 0
	}
	return 2
}

func (s *scanner) identifier() string {
	start := s.pos
	if s.pos < len(s.src) && isNameStart(s.src[s.pos]) && s.src[s.pos] != '\\' {
		s.scanWhile(isNamePart)
	}
	return string(s.src[start:s.pos])
}

// qualifiedName reads an optionally namespaced name such as \Runn\Core\Std.
func (s *scanner) qualifiedName() string {
	start := s.pos
	for {
		s.consume(`\`)
		if s.identifier() == "" {
			break
		}
		if s.peek() != '\\' {
			break
		}
	}
	return string(s.src[start:s.pos])
}

func (s *scanner) scanWhile(fn func(byte) bool) string {
	start := s.pos
	for s.pos < len(s.src) && fn(s.src[s.pos]) {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNameStart(c byte) bool {
	return c == '_' || c == '\\' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isNamePart(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}
