package yamlconv

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	phpfile "github.com/goliatone/go-phpfile"
)

func TestUnmarshalKeepsKeyOrder(t *testing.T) {
	src := `
name: demo
debug: false
db:
  port: 5432
  host: localhost
tags: [a, b]
ratio: 1.5
missing: ~
`
	got, err := Unmarshal([]byte(src))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := phpfile.MapOf(
		"name", "demo",
		"debug", false,
		"db", phpfile.MapOf("port", 5432, "host", "localhost"),
		"tags", phpfile.List{"a", "b"},
		"ratio", 1.5,
		"missing", nil,
	)
	if !phpfile.Equal(got, want) {
		t.Fatalf("unexpected value %v", phpfile.Native(got))
	}
	keys := got.(*phpfile.Map).Keys()
	if keys[0].String() != "name" || keys[2].String() != "db" {
		t.Fatalf("expected document key order, got %v", keys)
	}
}

func TestUnmarshalKeyCoercion(t *testing.T) {
	got, err := Unmarshal([]byte("1: one\n\"2\": two\ntrue: yes-key\nname: x\n"))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m := got.(*phpfile.Map)
	var keys []string
	for _, key := range m.Keys() {
		keys = append(keys, key.String())
	}
	if diff := cmp.Diff([]string{"1", "2", "name"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := m.Get(phpfile.IntKey(1)); v != "yes-key" {
		t.Fatalf("expected bool key to coerce to 1 and overwrite, got %v", v)
	}
}

func TestUnmarshalObjectsAndAliases(t *testing.T) {
	src := `
base: &base
  __class: Runn\Core\Std
  __data:
    foo: bar
copy: *base
`
	got, err := Unmarshal([]byte(src))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m := got.(*phpfile.Map)
	for _, name := range []string{"base", "copy"} {
		v, _ := m.Lookup(name)
		obj, ok := v.(*phpfile.Object)
		if !ok {
			t.Fatalf("%s: expected object, got %T", name, v)
		}
		if obj.Type != `Runn\Core\Std` || !phpfile.Equal(obj.Fields, phpfile.MapOf("foo", "bar")) {
			t.Fatalf("%s: unexpected object %+v", name, obj)
		}
	}
}

func TestUnmarshalRejectsComplexKeys(t *testing.T) {
	_, err := Unmarshal([]byte("? [a, b]\n: value\n"))
	if !errors.Is(err, ErrUnsupportedNode) {
		t.Fatalf("expected ErrUnsupportedNode, got %v", err)
	}
}

func TestUnmarshalEmptyDocument(t *testing.T) {
	got, err := Unmarshal(nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil value, got %v (%v)", got, err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	value := phpfile.MapOf(
		"name", "demo",
		"flag", "true",
		"count", 3,
		"whole", 2.0,
		"inf", math.Inf(1),
		"list", phpfile.List{int64(1), "two", nil},
		"sparse", phpfile.MapOf(3, "x", 7, "y"),
		"std", phpfile.NewObject(`Runn\Core\Std`, phpfile.MapOf("foo", "bar")),
		"empty", phpfile.NewMap(0),
	)
	out, err := Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "__class:") {
		t.Fatalf("expected object class in output:\n%s", out)
	}
	back, err := Unmarshal(out)
	if err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if !phpfile.Equal(back, value) {
		t.Fatalf("round trip mismatch:\n%s\n%v", out, phpfile.Native(back))
	}
}

func TestMarshalRejectsUnsupported(t *testing.T) {
	if _, err := Marshal(make(chan int)); !errors.Is(err, phpfile.ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}
}
