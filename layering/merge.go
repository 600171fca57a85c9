// Package layering composes stored values from several scopes into one.
package layering

import phpfile "github.com/goliatone/go-phpfile"

// Merge composes values ordered from strongest to weakest, returning a new
// value that keeps explicit settings from stronger layers while filling any
// missing data from weaker ones:
//
//   - a nil layer value never overrides a weaker one;
//   - maps merge key by key, keeping the weaker layer's key order and
//     appending keys only stronger layers define;
//   - objects of the same type merge their fields like maps;
//   - lists, scalars and mismatched kinds are replaced wholesale.
//
// The layers are not modified.
func Merge(layers ...phpfile.Value) phpfile.Value {
	if len(layers) == 0 {
		return nil
	}
	merged := phpfile.Clone(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeValue(layers[i], merged)
	}
	return merged
}

// mergeValue overlays strong on weak. weak is owned by the caller and may
// be reused in the result.
func mergeValue(strong, weak phpfile.Value) phpfile.Value {
	if strong == nil {
		return weak
	}
	switch s := strong.(type) {
	case *phpfile.Map:
		if w, ok := weak.(*phpfile.Map); ok && s != nil && w != nil {
			return mergeMaps(s, w)
		}
	case *phpfile.Object:
		if w, ok := weak.(*phpfile.Object); ok && s != nil && w != nil && s.Type == w.Type {
			return phpfile.NewObject(s.Type, mergeMaps(s.Fields, w.Fields))
		}
	}
	return phpfile.Clone(strong)
}

func mergeMaps(strong, weak *phpfile.Map) *phpfile.Map {
	if weak == nil {
		return phpfile.Clone(strong).(*phpfile.Map)
	}
	strong.Range(func(key phpfile.Key, value phpfile.Value) bool {
		if existing, ok := weak.Get(key); ok {
			weak.Set(key, mergeValue(value, existing))
			return true
		}
		weak.Set(key, phpfile.Clone(value))
		return true
	})
	return weak
}
