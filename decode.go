package phpfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-phpfile/internal/hydrate"
)

type (
	// DecodeContext identifies the file a Decode call reads from.
	DecodeContext = hydrate.Context
	// DecodeOption configures Decode.
	DecodeOption[T any] = hydrate.DecoderOption[T]
)

// DecodeWithPreHook rewrites the payload before decoding.
func DecodeWithPreHook[T any](hook func(DecodeContext, any) (any, error)) DecodeOption[T] {
	return hydrate.WithPreHook[T](hook)
}

// DecodeWithPostHook adjusts or validates the decoded value.
func DecodeWithPostHook[T any](hook func(DecodeContext, *T) error) DecodeOption[T] {
	return hydrate.WithPostHook[T](hook)
}

// DecodeRequire fails when any dot path (e.g. "db.host") is missing from
// the held data.
func DecodeRequire[T any](paths ...string) DecodeOption[T] {
	return hydrate.WithRequired[T](paths...)
}

// DecodeUseNumber keeps numbers as json.Number when T holds interfaces.
func DecodeUseNumber[T any]() DecodeOption[T] {
	return hydrate.WithUseNumber[T]()
}

// DecodeDisallowUnknownFields fails on keys that T does not declare.
func DecodeDisallowUnknownFields[T any]() DecodeOption[T] {
	return hydrate.WithDisallowUnknownFields[T]()
}

// DecodeWithCustomDecoder replaces JSON decoding entirely.
func DecodeWithCustomDecoder[T any](decoder func(DecodeContext, any) (T, error)) DecodeOption[T] {
	return hydrate.WithCustomDecoder[T](decoder)
}

// Decode converts the held data of f into T through its JSON form, so T's
// json struct tags name the keys. Objects decode as their field maps.
func Decode[T any](f *File, opts ...DecodeOption[T]) (T, error) {
	var zero T
	value, err := f.Get()
	if err != nil {
		return zero, err
	}
	ctx := DecodeContext{Path: f.Path(), Kind: Kind(value)}
	return hydrate.NewDecoder(opts...).Decode(ctx, Native(value))
}

// FromStruct converts v into a Value through its JSON form, keeping the
// field order of the encoding. Integral numbers become int64, others
// float64.
func FromStruct(v any) (Value, error) {
	raw, err := hydrate.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	value, err := decodeOrdered(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("phpfile: trailing data after JSON value")
	}
	return value, nil
}

// decodeOrdered reads one JSON value, keeping object keys in order.
func decodeOrdered(dec *json.Decoder) (Value, error) {
	token, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := token.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap(0)
			for dec.More() {
				keyToken, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("phpfile: unexpected JSON key %v", keyToken)
				}
				value, err := decodeOrdered(dec)
				if err != nil {
					return nil, err
				}
				m.SetString(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			list := List{}
			for dec.More() {
				value, err := decodeOrdered(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("phpfile: unexpected JSON delimiter %q", t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %s", ErrUnsupportedValue, t)
		}
		return f, nil
	default:
		return token, nil
	}
}
