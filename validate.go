package phpfile

import (
	"errors"
	"fmt"
)

// ErrInvalidValue marks data rejected by a Validator.
var ErrInvalidValue = errors.New("phpfile: invalid value")

// Validator checks data before it is written.
type Validator interface {
	Validate(Value) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(Value) error

// Validate implements Validator.
func (fn ValidatorFunc) Validate(v Value) error {
	if fn == nil {
		return nil
	}
	return fn(v)
}

// WithValidator adds a validator run by Save and Validate, in the order
// they were added. Nil validators are ignored.
func WithValidator(v Validator) Option {
	return func(cfg *fileConfig) {
		if v != nil {
			cfg.validators = append(cfg.validators, v)
		}
	}
}

// Validate runs the configured validators against the held data.
func (f *File) Validate() error {
	value, err := f.Get()
	if err != nil {
		return err
	}
	return f.validate(value)
}

func (f *File) validate(value Value) error {
	for _, v := range f.cfg.validators {
		if err := v.Validate(value); err != nil {
			if !errors.Is(err, ErrInvalidValue) {
				err = fmt.Errorf("%w: %w", ErrInvalidValue, err)
			}
			return &PathError{Op: "validate", Path: f.path, Err: err}
		}
	}
	return nil
}
