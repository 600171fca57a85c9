// Package usersink writes file activity into a go-users ActivitySink, so
// config edits show up in the same audit trail as user actions.
package usersink

import (
	"context"

	"github.com/goliatone/go-phpfile/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards events to Sink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Channel replaces the event channel when set.
	Channel string
	// TenantID is used for events that carry no tenant.
	TenantID string
}

var _ activity.Hook = Hook{}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	record, ok := h.Record(event)
	if !ok {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

// Record maps event to an ActivityRecord. It reports false for events
// without a verb or object. IDs that are not UUIDs become uuid.Nil.
func (h Hook) Record(event activity.Event) (usertypes.ActivityRecord, bool) {
	event = activity.Normalize(event)
	if !event.Complete() {
		return usertypes.ActivityRecord{}, false
	}
	if h.Channel != "" {
		event.Channel = h.Channel
	}
	if event.TenantID == "" {
		event.TenantID = h.TenantID
	}

	data := event.Metadata
	if path := event.Path(); path != "" {
		data = event.With("path", path).Metadata
	}
	return usertypes.ActivityRecord{
		ActorID:    uuidOrNil(event.ActorID),
		UserID:     uuidOrNil(event.UserID),
		TenantID:   uuidOrNil(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}, true
}

func uuidOrNil(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
