// Package hydrate turns the native form of a stored literal (maps, slices
// and scalars, see phpfile.Native) into typed structs, using encoding/json
// struct tags as the field mapping.
//
// Decode runs in stages: copy, require, pre-hook, decode, post-hook. A
// failure is reported as *Error naming the stage.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Stage names one step of Decode.
type Stage string

const (
	StageCopy    Stage = "copy"
	StageRequire Stage = "require"
	StagePre     Stage = "pre-hook"
	StageDecode  Stage = "decode"
	StagePost    Stage = "post-hook"
)

// Error reports the stage that failed and the file being decoded.
type Error struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *Error) Error() string {
	where := "<memory>"
	if e.Path != "" {
		where = fmt.Sprintf("%q", e.Path)
	}
	return fmt.Sprintf("hydrate: %s %s: %v", e.Stage, where, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Context identifies the payload being decoded.
type Context struct {
	// Path is the file the payload was loaded from.
	Path string
	// Kind is the kind of the payload root ("map", "list", ...).
	Kind string
}

// PreHook may rewrite the payload. Returning nil keeps it unchanged.
type PreHook func(Context, any) (any, error)

// PostHook may adjust or reject the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the JSON step.
type CustomDecoder[T any] func(Context, any) (T, error)

type DecoderOption[T any] func(*Decoder[T])

// Decoder converts payloads into T. The zero value decodes with plain
// encoding/json rules.
type Decoder[T any] struct {
	required   []string
	pre        []PreHook
	post       []PostHook[T]
	useNumber  bool
	strictKeys bool
	custom     CustomDecoder[T]
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.pre = append(d.pre, hook)
		}
	}
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.post = append(d.post, hook)
		}
	}
}

// WithRequired fails the decode when a dot path is missing from the
// payload, before any hook runs.
func WithRequired[T any](paths ...string) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.required = append(d.required, paths...)
	}
}

// WithUseNumber keeps numbers as json.Number where T holds interfaces.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) { d.useNumber = true }
}

// WithDisallowUnknownFields rejects keys T does not declare.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) { d.strictKeys = true }
}

func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) { d.custom = decoder }
}

// Decode converts payload into T. The payload is copied first, so hooks
// may mutate what they receive; in the copy numbers are json.Number.
func (d *Decoder[T]) Decode(ctx Context, payload any) (T, error) {
	var out T
	fail := func(stage Stage, err error) (T, error) {
		var zero T
		return zero, &Error{Stage: stage, Path: ctx.Path, Err: err}
	}

	current, err := copyPayload(payload)
	if err != nil {
		return fail(StageCopy, err)
	}
	if missing := missingPaths(current, d.required); len(missing) > 0 {
		return fail(StageRequire, fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}
	for _, hook := range d.pre {
		next, err := hook(ctx, current)
		if err != nil {
			return fail(StagePre, err)
		}
		if next != nil {
			current = next
		}
	}

	if d.custom != nil {
		out, err = d.custom(ctx, current)
	} else {
		err = d.decodeJSON(current, &out)
	}
	if err != nil {
		return fail(StageDecode, err)
	}

	for _, hook := range d.post {
		if err := hook(ctx, &out); err != nil {
			return fail(StagePost, err)
		}
	}
	return out, nil
}

func (d *Decoder[T]) decodeJSON(payload any, out *T) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if d.useNumber {
		dec.UseNumber()
	}
	if d.strictKeys {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(out)
}

// Encode is json.Marshal with a hydrate error prefix. Struct tags decide
// field names and field order.
func Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("hydrate: encode %T: %w", v, err)
	}
	return raw, nil
}

func copyPayload(payload any) (any, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	err = dec.Decode(&out)
	return out, err
}

// missingPaths returns the dot paths of required that do not resolve in
// payload. Numeric segments index lists.
func missingPaths(payload any, required []string) []string {
	var missing []string
	for _, path := range required {
		if !hasPath(payload, strings.Split(path, ".")) {
			missing = append(missing, path)
		}
	}
	return missing
}

func hasPath(v any, segments []string) bool {
	for _, segment := range segments {
		switch c := v.(type) {
		case map[string]any:
			next, ok := c[segment]
			if !ok {
				return false
			}
			v = next
		case []any:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(c) {
				return false
			}
			v = c[i]
		default:
			return false
		}
	}
	return true
}
