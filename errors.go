package phpfile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPath is returned by Load and Save on a File without a path.
	ErrEmptyPath = errors.New("phpfile: empty path")
	// ErrFileNotExists is returned by Load when the path is missing or is
	// not a regular file.
	ErrFileNotExists = errors.New("phpfile: file does not exist")
	// ErrFileNotReadable is returned by Load when the file exists but cannot
	// be read by the current process.
	ErrFileNotReadable = errors.New("phpfile: file is not readable")
	// ErrFileNotWritable is returned by Save when the target cannot be
	// written.
	ErrFileNotWritable = errors.New("phpfile: file is not writable")
	// ErrInvalidOperation marks calls that are not valid in the current
	// state, such as Get before any Load or Set.
	ErrInvalidOperation = errors.New("phpfile: invalid operation")
	// ErrUnregisteredFactory is returned while parsing an object literal
	// whose type has no registered Factory.
	ErrUnregisteredFactory = errors.New("phpfile: unregistered factory")
	// ErrUnsupportedValue is returned when a Go value has no literal form.
	ErrUnsupportedValue = errors.New("phpfile: unsupported value")
)

// PathError records a failed file operation and the path it concerned.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path == "" {
		return fmt.Sprintf("phpfile: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("phpfile: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SyntaxError describes literal source the parser could not accept.
// Offset is a byte offset; Line and Column are 1-based.
type SyntaxError struct {
	Offset int
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("line %d column %d: %s: %v", e.Line, e.Column, e.Msg, e.Err)
	}
	return fmt.Sprintf("line %d column %d: %s", e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EvaluationError reports source that could not be evaluated. Engine is
// "literal" when a file body failed to parse, otherwise the name of the
// query engine. Source is the file path when one is known.
type EvaluationError struct {
	Engine string
	Expr   string
	Source string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("phpfile: ")
	b.WriteString(e.Engine)
	if e.Expr != "" {
		expr := e.Expr
		if len(expr) > 64 {
			expr = expr[:61] + "..."
		}
		fmt.Fprintf(&b, " %q", expr)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// evaluationFailure wraps err in an *EvaluationError. An existing one keeps
// its fields and only has the empty ones filled in. Invalid operations
// pass through untouched.
func evaluationFailure(engine, expr, source string, err error) error {
	if err == nil || errors.Is(err, ErrInvalidOperation) {
		return err
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Expr: expr, Source: source, Err: err}
	}
	if evalErr.Engine == "" {
		evalErr.Engine = engine
	}
	if evalErr.Expr == "" {
		evalErr.Expr = expr
	}
	if evalErr.Source == "" {
		evalErr.Source = source
	}
	return evalErr
}
