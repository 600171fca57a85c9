package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFileEvent(t *testing.T) {
	event := FileEvent(VerbFileSaved, "/etc/app/config.php", Actor{ID: "a1", TenantID: "t1"}).
		With("bytes", 42).
		With("kind", "map")

	if event.ObjectType != ObjectTypeFile || event.Path() != "/etc/app/config.php" {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if event.ActorID != "a1" || event.TenantID != "t1" || event.UserID != "" {
		t.Fatalf("unexpected actor fields: %+v", event)
	}
	if diff := cmp.Diff(map[string]any{"bytes": 42, "kind": "map"}, event.Metadata); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}
	if (Event{ObjectType: "user", ObjectID: "u1"}).Path() != "" {
		t.Fatalf("expected non-file events to have no path")
	}
}

func TestWithDoesNotShareMetadata(t *testing.T) {
	base := FileEvent(VerbFileLoaded, "a.php", Actor{}).With("bytes", 1)
	changed := base.With("bytes", 2)
	if base.Metadata["bytes"] != 1 || changed.Metadata["bytes"] != 2 {
		t.Fatalf("expected independent metadata, got %v and %v", base.Metadata, changed.Metadata)
	}
}

func TestNormalize(t *testing.T) {
	meta := map[string]any{"k": "v"}
	got := Normalize(Event{
		Verb:       " file.saved ",
		ActorID:    " actor ",
		ObjectType: " php_file ",
		ObjectID:   " /tmp/config.php ",
		Channel:    " files ",
		Metadata:   meta,
	})
	if got.Verb != VerbFileSaved || got.ActorID != "actor" || got.ObjectID != "/tmp/config.php" || got.Channel != "files" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be stamped")
	}
	got.Metadata["k"] = "changed"
	if meta["k"] != "v" {
		t.Fatalf("expected caller metadata untouched")
	}

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if kept := Normalize(Event{OccurredAt: at}); !kept.OccurredAt.Equal(at) {
		t.Fatalf("expected explicit time kept, got %v", kept.OccurredAt)
	}
}

func TestHooksDropIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	if err := (Hooks{capture}).Notify(context.Background(), Event{Verb: VerbFileSaved}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(capture.Events()) != 0 {
		t.Fatalf("expected incomplete event to be dropped")
	}
}

func TestHooksJoinErrorsAndKeepDelivering(t *testing.T) {
	capture := &CaptureHook{}
	first, second := errors.New("first"), errors.New("second")
	hooks := Hooks{
		HookFunc(func(context.Context, Event) error { return first }),
		nil,
		capture,
		HookFunc(func(context.Context, Event) error { return second }),
	}

	//lint:ignore SA1012 nil context falls back to Background
	err := hooks.Notify(nil, FileEvent(VerbFileLoaded, "a.php", Actor{}))
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if diff := cmp.Diff([]string{VerbFileLoaded}, capture.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}
}

func TestOnly(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{Only(capture, VerbFileSaved, VerbFileRejected)}
	ctx := context.Background()

	for _, verb := range []string{VerbFileLoaded, VerbFileSaved, VerbFileRejected} {
		_ = hooks.Notify(ctx, FileEvent(verb, "a.php", Actor{}))
	}
	if diff := cmp.Diff([]string{VerbFileSaved, VerbFileRejected}, capture.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitterChannel(t *testing.T) {
	capture := &CaptureHook{}
	ctx := context.Background()

	emitter := NewEmitter("", Hooks{capture})
	_ = emitter.Emit(ctx, FileEvent(VerbFileSaved, "a.php", Actor{}))

	custom := FileEvent(VerbFileSaved, "b.php", Actor{})
	custom.Channel = "custom"
	_ = NewEmitter("config", Hooks{capture}).Emit(ctx, custom)

	events := capture.Events()
	if len(events) != 2 || events[0].Channel != DefaultChannel || events[1].Channel != "custom" {
		t.Fatalf("unexpected channels: %+v", events)
	}
	if diff := cmp.Diff([]string{"a.php", "b.php"}, capture.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestEmitterWithoutHooks(t *testing.T) {
	emitter := NewEmitter("config", Hooks{nil})
	if emitter.Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}
	if err := emitter.Emit(context.Background(), FileEvent(VerbFileSaved, "a.php", Actor{})); err != nil {
		t.Fatalf("emit: %v", err)
	}
	var nilEmitter *Emitter
	if nilEmitter.Enabled() {
		t.Fatalf("expected nil emitter to be disabled")
	}
}

func TestCaptureHookReset(t *testing.T) {
	boom := errors.New("boom")
	capture := &CaptureHook{Err: boom}
	if err := capture.Notify(context.Background(), FileEvent(VerbFileSaved, "a.php", Actor{})); !errors.Is(err, boom) {
		t.Fatalf("expected configured error, got %v", err)
	}
	capture.Reset()
	if len(capture.Events()) != 0 || len(capture.Paths()) != 0 {
		t.Fatalf("expected reset to drop events")
	}
}
