package activity

import (
	"context"
	"errors"
	"strings"
)

// Hook receives normalized, complete events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks notifies every hook in order.
type Hooks []Hook

// Compact returns the non-nil hooks, or nil when there are none.
func (h Hooks) Compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

// Notify normalizes event and hands it to each hook. Incomplete events are
// dropped. Hook errors do not stop delivery; they are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	event = Normalize(event)
	if len(h) == 0 || !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Only wraps hook so it sees just the listed verbs.
func Only(hook Hook, verbs ...string) Hook {
	allowed := make(map[string]bool, len(verbs))
	for _, verb := range verbs {
		allowed[strings.TrimSpace(verb)] = true
	}
	return HookFunc(func(ctx context.Context, event Event) error {
		if hook == nil || !allowed[event.Verb] {
			return nil
		}
		return hook.Notify(ctx, event)
	})
}

// Emitter stamps a default channel on events before fanning them out.
type Emitter struct {
	hooks   Hooks
	channel string
}

// DefaultChannel is used when NewEmitter is given no channel.
const DefaultChannel = "files"

func NewEmitter(channel string, hooks Hooks) *Emitter {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &Emitter{hooks: hooks.Compact(), channel: channel}
}

// Enabled reports whether any hook is attached.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
