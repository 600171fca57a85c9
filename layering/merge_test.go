package layering

import (
	"testing"

	phpfile "github.com/goliatone/go-phpfile"
)

func TestMerge(t *testing.T) {
	cases := []struct {
		name   string
		layers []phpfile.Value
		want   phpfile.Value
	}{
		{
			name: "no layers",
			want: nil,
		},
		{
			name:   "single layer",
			layers: []phpfile.Value{phpfile.MapOf("a", 1)},
			want:   phpfile.MapOf("a", 1),
		},
		{
			name: "nested maps merge",
			layers: []phpfile.Value{
				phpfile.MapOf("db", phpfile.MapOf("host", "user-db")),
				phpfile.MapOf("db", phpfile.MapOf("host", "tenant-db", "port", 5432), "debug", true),
				phpfile.MapOf("debug", false, "db", phpfile.MapOf("port", 3306, "user", "root")),
			},
			want: phpfile.MapOf(
				"debug", true,
				"db", phpfile.MapOf("port", 5432, "user", "root", "host", "user-db"),
			),
		},
		{
			name: "nil does not override",
			layers: []phpfile.Value{
				phpfile.MapOf("a", nil),
				phpfile.MapOf("a", 1),
			},
			want: phpfile.MapOf("a", 1),
		},
		{
			name: "lists replaced",
			layers: []phpfile.Value{
				phpfile.MapOf("tags", phpfile.List{"x"}),
				phpfile.MapOf("tags", phpfile.List{"a", "b"}),
			},
			want: phpfile.MapOf("tags", phpfile.List{"x"}),
		},
		{
			name: "same type objects merge",
			layers: []phpfile.Value{
				phpfile.NewObject("Std", phpfile.MapOf("b", 2)),
				phpfile.NewObject("Std", phpfile.MapOf("a", 1, "b", 1)),
			},
			want: phpfile.NewObject("Std", phpfile.MapOf("a", 1, "b", 2)),
		},
		{
			name: "different types replaced",
			layers: []phpfile.Value{
				phpfile.NewObject("Other", phpfile.MapOf("b", 2)),
				phpfile.NewObject("Std", phpfile.MapOf("a", 1)),
			},
			want: phpfile.NewObject("Other", phpfile.MapOf("b", 2)),
		},
		{
			name: "scalar over map",
			layers: []phpfile.Value{
				"off",
				phpfile.MapOf("a", 1),
			},
			want: "off",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.layers...)
			if !phpfile.Equal(got, tc.want) {
				t.Fatalf("merged mismatch:\nwant: %#v\n got: %#v", tc.want, got)
			}
		})
	}
}

func TestMergeLeavesLayersUntouched(t *testing.T) {
	strong := phpfile.MapOf("db", phpfile.MapOf("host", "a"))
	weak := phpfile.MapOf("db", phpfile.MapOf("port", 1))

	merged := Merge(strong, weak).(*phpfile.Map)
	db, _ := merged.Lookup("db")
	db.(*phpfile.Map).SetString("host", "changed")

	if !phpfile.Equal(strong, phpfile.MapOf("db", phpfile.MapOf("host", "a"))) {
		t.Fatalf("strong layer mutated: %#v", strong)
	}
	if !phpfile.Equal(weak, phpfile.MapOf("db", phpfile.MapOf("port", 1))) {
		t.Fatalf("weak layer mutated: %#v", weak)
	}
}
