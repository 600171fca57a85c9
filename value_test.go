package phpfile

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil", nil, nil, true},
		{"int vs float", int64(1), 1.0, false},
		{"nan", math.NaN(), math.NaN(), true},
		{"strings", "a", "a", true},
		{"list vs sequential map", List{"a", "b"}, MapOf(0, "a", 1, "b"), true},
		{"list vs shuffled map", List{"a", "b"}, MapOf(1, "b", 0, "a"), false},
		{"empty list vs empty map", List{}, NewMap(0), true},
		{"map order matters", MapOf("a", 1, "b", 2), MapOf("b", 2, "a", 1), false},
		{"nested", MapOf("a", List{MapOf("b", nil)}), MapOf("a", List{MapOf("b", nil)}), true},
		{"objects", NewObject("Std", MapOf("a", 1)), NewObject("Std", MapOf("a", 1)), true},
		{"object types differ", NewObject("Std", nil), NewObject("Other", nil), false},
		{"object vs map", NewObject("Std", MapOf("a", 1)), MapOf("a", 1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Fatalf("Equal(%#v, %#v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestNative(t *testing.T) {
	value := MapOf(
		"name", "app",
		"ports", List{int64(80), int64(443)},
		"seq", MapOf(0, "a", 1, "b"),
		"sparse", MapOf(3, "c"),
		"empty", NewMap(0),
		"object", NewObject("Std", MapOf("debug", true)),
	)

	want := map[string]any{
		"name":   "app",
		"ports":  []any{int64(80), int64(443)},
		"seq":    []any{"a", "b"},
		"sparse": map[string]any{"3": "c"},
		"empty":  map[string]any{},
		"object": map[string]any{"debug": true},
	}
	if diff := cmp.Diff(want, Native(value)); diff != "" {
		t.Fatalf("unexpected native form (-want +got):\n%s", diff)
	}
}

func TestCloneObject(t *testing.T) {
	obj := NewObject("Std", MapOf("a", List{int64(1)}))
	clone := Clone(obj).(*Object)
	clone.Fields.SetString("a", "changed")

	if v, _ := obj.Fields.Lookup("a"); !Equal(v, List{int64(1)}) {
		t.Fatalf("expected original object untouched, got %v", v)
	}
}

func TestKind(t *testing.T) {
	cases := map[string]Value{
		"null":        nil,
		"int":         int64(1),
		"float":       1.0,
		"list":        List{},
		"map":         NewMap(0),
		"object(Std)": NewObject("Std", nil),
	}
	for want, value := range cases {
		if got := Kind(value); got != want {
			t.Fatalf("Kind(%#v) = %q, want %q", value, got, want)
		}
	}
}
