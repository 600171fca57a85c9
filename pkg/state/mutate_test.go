package state_test

import (
	"context"
	"errors"
	"testing"
	"time"

	phpfile "github.com/goliatone/go-phpfile"
	"github.com/goliatone/go-phpfile/pkg/state"
)

type mutateStore struct {
	loadValue phpfile.Value
	loadMeta  state.Meta
	loadOK    bool
	loadErr   error

	saveCalls  int
	savedRef   state.Ref
	savedMeta  state.Meta
	savedValue phpfile.Value
	saveReturn state.Meta
	saveErr    error
}

func (s *mutateStore) Load(_ context.Context, ref state.Ref) (phpfile.Value, state.Meta, bool, error) {
	if s.loadErr != nil {
		return nil, state.Meta{}, false, s.loadErr
	}
	return s.loadValue, s.loadMeta, s.loadOK, nil
}

func (s *mutateStore) Save(_ context.Context, ref state.Ref, value phpfile.Value, meta state.Meta) (state.Meta, error) {
	s.saveCalls++
	s.savedRef = ref
	s.savedMeta = meta
	s.savedValue = value
	if s.saveErr != nil {
		return state.Meta{}, s.saveErr
	}
	return s.saveReturn, nil
}

var userRef = state.Ref{Domain: "notifications", Scope: state.NewScope(state.ScopeUser, "u42")}

func TestResolverMutateSavesUpdatedValue(t *testing.T) {
	loaded := phpfile.MapOf("email", true, "sms", false)
	store := &mutateStore{
		loadValue:  loaded,
		loadMeta:   state.Meta{SnapshotID: "snap-1", ETag: "v1", Extra: map[string]string{"by": "seed"}},
		loadOK:     true,
		saveReturn: state.Meta{SnapshotID: "snap-2", ETag: "v2"},
	}

	value, meta, err := state.Resolver{Store: store}.Mutate(context.Background(), userRef, state.Meta{ETag: "v1", SnapshotID: "snap-2"}, func(v phpfile.Value) (phpfile.Value, error) {
		m := v.(*phpfile.Map)
		m.SetString("sms", true)
		return m, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if store.saveCalls != 1 {
		t.Fatalf("expected one save, got %d", store.saveCalls)
	}
	if store.savedRef != userRef {
		t.Fatalf("unexpected saved ref %+v", store.savedRef)
	}
	if store.savedMeta.SnapshotID != "snap-2" || store.savedMeta.Extra["by"] != "seed" {
		t.Fatalf("expected merged meta, got %+v", store.savedMeta)
	}
	if meta.ETag != "v2" {
		t.Fatalf("expected store meta to be returned, got %+v", meta)
	}
	want := phpfile.MapOf("email", true, "sms", true)
	if !phpfile.Equal(value, want) || !phpfile.Equal(store.savedValue, want) {
		t.Fatalf("unexpected saved value %v", phpfile.Native(store.savedValue))
	}
	if sms, _ := loaded.Lookup("sms"); sms != false {
		t.Fatalf("mutator received the stored value instead of a copy")
	}
}

func TestResolverMutateETagMismatch(t *testing.T) {
	store := &mutateStore{
		loadValue: phpfile.MapOf("email", true),
		loadMeta:  state.Meta{ETag: "v2"},
		loadOK:    true,
	}
	called := false
	_, meta, err := state.Resolver{Store: store}.Mutate(context.Background(), userRef, state.Meta{ETag: "v1"}, func(v phpfile.Value) (phpfile.Value, error) {
		called = true
		return v, nil
	})
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected etag mismatch, got %v", err)
	}
	if called || store.saveCalls != 0 {
		t.Fatalf("expected no mutation and no save")
	}
	if meta.ETag != "v2" {
		t.Fatalf("expected loaded meta on mismatch, got %+v", meta)
	}
}

func TestResolverMutateMissingValueStartsFromNil(t *testing.T) {
	store := &mutateStore{saveReturn: state.Meta{SnapshotID: "snap-1"}}
	var received phpfile.Value = "sentinel"
	_, _, err := state.Resolver{Store: store}.Mutate(context.Background(), userRef, state.Meta{ETag: "ignored"}, func(v phpfile.Value) (phpfile.Value, error) {
		received = v
		return map[string]any{"email": true}, nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if received != nil {
		t.Fatalf("expected nil for a missing value, got %v", received)
	}
	if !phpfile.Equal(store.savedValue, phpfile.MapOf("email", true)) {
		t.Fatalf("expected normalized value to be saved, got %#v", store.savedValue)
	}
}

func TestResolverMutateFailuresDoNotSave(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name string
		fn   state.Mutator
		want error
	}{
		{
			name: "mutator error",
			fn:   func(phpfile.Value) (phpfile.Value, error) { return nil, boom },
			want: boom,
		},
		{
			name: "unsupported value",
			fn:   func(phpfile.Value) (phpfile.Value, error) { return struct{ A int }{1}, nil },
			want: phpfile.ErrUnsupportedValue,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mutateStore{loadValue: int64(1), loadOK: true}
			_, _, err := state.Resolver{Store: store}.Mutate(context.Background(), userRef, state.Meta{}, tc.fn)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if store.saveCalls != 0 {
				t.Fatalf("expected no save calls, got %d", store.saveCalls)
			}
		})
	}
}

func TestResolverMutateWrapsSaveError(t *testing.T) {
	boom := errors.New("disk full")
	store := &mutateStore{saveErr: boom}
	_, _, err := state.Resolver{Store: store}.Mutate(context.Background(), userRef, state.Meta{}, func(phpfile.Value) (phpfile.Value, error) {
		return int64(1), nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
}

func TestResolverMutateValidatesArguments(t *testing.T) {
	fn := func(v phpfile.Value) (phpfile.Value, error) { return v, nil }
	cases := []struct {
		name     string
		resolver state.Resolver
		ref      state.Ref
		fn       state.Mutator
	}{
		{name: "no store", ref: userRef, fn: fn},
		{name: "no domain", resolver: state.Resolver{Store: &mutateStore{}}, ref: state.Ref{Scope: userRef.Scope}, fn: fn},
		{name: "no scope", resolver: state.Resolver{Store: &mutateStore{}}, ref: state.Ref{Domain: "x"}, fn: fn},
		{name: "no mutator", resolver: state.Resolver{Store: &mutateStore{}}, ref: userRef},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := tc.resolver.Mutate(context.Background(), tc.ref, state.Meta{}, tc.fn); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestResolverMutateRestampsEverySave(t *testing.T) {
	stores := map[string]func(t *testing.T) state.Store{
		"memory": func(*testing.T) state.Store { return state.NewMemoryStore() },
		"file":   func(t *testing.T) state.Store { return state.NewFileStore(t.TempDir()) },
	}
	increment := func(v phpfile.Value) (phpfile.Value, error) {
		n, _ := v.(int64)
		return n + 1, nil
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			resolver := state.Resolver{Store: newStore(t)}
			ctx := context.Background()

			_, first, err := resolver.Mutate(ctx, userRef, state.Meta{Extra: map[string]string{"by": "ops"}}, increment)
			if err != nil {
				t.Fatalf("first mutate: %v", err)
			}
			time.Sleep(2 * time.Millisecond)
			value, second, err := resolver.Mutate(ctx, userRef, state.Meta{ETag: first.ETag}, increment)
			if err != nil {
				t.Fatalf("second mutate: %v", err)
			}

			if value != int64(2) {
				t.Fatalf("expected 2, got %v", value)
			}
			if first.SnapshotID == "" || first.SnapshotID == second.SnapshotID {
				t.Fatalf("expected a fresh snapshot id per mutation, got %q then %q", first.SnapshotID, second.SnapshotID)
			}
			if !second.UpdatedAt.After(first.UpdatedAt) {
				t.Fatalf("expected UpdatedAt to advance, got %v then %v", first.UpdatedAt, second.UpdatedAt)
			}
			if first.ETag == second.ETag {
				t.Fatalf("expected etag to change with content")
			}
			if second.Extra["by"] != "ops" {
				t.Fatalf("expected extra meta to carry over, got %v", second.Extra)
			}
		})
	}
}
