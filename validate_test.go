package phpfile

import (
	"errors"
	"testing"
)

func TestValidatorsRunInOrder(t *testing.T) {
	var calls []string
	first := ValidatorFunc(func(Value) error {
		calls = append(calls, "first")
		return nil
	})
	reject := errors.New("port must be set")
	second := ValidatorFunc(func(v Value) error {
		calls = append(calls, "second")
		if m, ok := v.(*Map); ok {
			if _, ok := m.Lookup("port"); ok {
				return nil
			}
		}
		return reject
	})

	fsys := NewMemoryFileSystem()
	f := New("/conf.php", WithFileSystem(fsys), WithValidator(first), WithValidator(nil), WithValidator(second))
	err := f.Set(map[string]any{"host": "x"}).Save()
	if !errors.Is(err, ErrInvalidValue) || !errors.Is(err, reject) {
		t.Fatalf("expected wrapped validation error, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected call order %v", calls)
	}
	if !f.IsDirty() {
		t.Fatalf("rejected save must keep the file dirty")
	}
	if fsys.Exists("/conf.php") {
		t.Fatalf("rejected data must not be written")
	}
}

func TestFileValidate(t *testing.T) {
	f := New("/conf.php", WithFileSystem(NewMemoryFileSystem()), WithValidator(ValidatorFunc(func(v Value) error {
		if _, ok := v.(int64); !ok {
			return errors.New("want int")
		}
		return nil
	})))
	if err := f.Validate(); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation before set, got %v", err)
	}
	if err := f.Set(42).Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := f.Set("x").Validate(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}
