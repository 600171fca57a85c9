package phpfile

import (
	"context"

	"github.com/goliatone/go-phpfile/pkg/activity"
)

// WithActivityHooks attaches hooks notified after successful loads and
// saves, and after saves refused by a validator. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	hooks = hooks.Compact()
	return func(cfg *fileConfig) {
		cfg.activityHooks = hooks
	}
}

// WithActivityChannel sets the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *fileConfig) {
		cfg.activityChannel = channel
	}
}

// WithActivityActor attributes emitted events to actor.
func WithActivityActor(actor activity.Actor) Option {
	return func(cfg *fileConfig) {
		cfg.actor = actor
	}
}

// ActivityHooks returns a copy of the hooks configured on the File.
func (f *File) ActivityHooks() activity.Hooks {
	if f == nil {
		return nil
	}
	return f.cfg.activityHooks.Compact()
}

// emit reports verb for the bound path. Hook failures are logged only.
func (f *File) emit(verb string, bytes int, cause error) {
	if !f.emitter.Enabled() {
		return
	}
	event := activity.FileEvent(verb, f.path, f.cfg.actor).
		With("bytes", bytes).
		With("kind", Kind(f.value))
	if cause != nil {
		event = event.With("error", cause.Error())
	}
	if err := f.emitter.Emit(context.Background(), event); err != nil {
		f.cfg.logger.Log(LogEvent{Op: "activity", Path: f.path, Err: err})
	}
}
