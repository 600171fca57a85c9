// Package activity reports what happened to PHP files (loaded, saved,
// rejected by validation) to pluggable hooks such as an audit log.
package activity

import (
	"strings"
	"time"
)

// ObjectTypeFile is the object type of every file event; the object ID
// is the file path.
const ObjectTypeFile = "php_file"

const (
	VerbFileLoaded = "file.loaded"
	VerbFileSaved  = "file.saved"
	// VerbFileRejected is emitted when a save is refused by a validator.
	VerbFileRejected = "file.rejected"
)

// Actor identifies who triggered an event. Any field may be empty.
type Actor struct {
	ID       string
	UserID   string
	TenantID string
}

// Event is one file lifecycle occurrence. IDs are plain strings so
// callers do not depend on a UUID type.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// FileEvent returns the event for verb on path, attributed to actor.
func FileEvent(verb, path string, actor Actor) Event {
	return Event{
		Verb:       verb,
		ActorID:    actor.ID,
		UserID:     actor.UserID,
		TenantID:   actor.TenantID,
		ObjectType: ObjectTypeFile,
		ObjectID:   path,
	}
}

// With returns a copy of e with key set in its metadata.
func (e Event) With(key string, value any) Event {
	meta := make(map[string]any, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	e.Metadata = meta
	return e
}

// Path returns the file path of a file event, or "".
func (e Event) Path() string {
	if e.ObjectType != ObjectTypeFile {
		return ""
	}
	return e.ObjectID
}

// Normalize trims identifiers, copies metadata and stamps the current
// time when OccurredAt is zero.
func Normalize(event Event) Event {
	for _, field := range []*string{
		&event.Verb, &event.ActorID, &event.UserID, &event.TenantID,
		&event.ObjectType, &event.ObjectID, &event.Channel,
	} {
		*field = strings.TrimSpace(*field)
	}
	if len(event.Metadata) == 0 {
		event.Metadata = nil
	} else {
		meta := make(map[string]any, len(event.Metadata))
		for k, v := range event.Metadata {
			meta[k] = v
		}
		event.Metadata = meta
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return event
}

// Complete reports whether the event names a verb and an object.
func (e Event) Complete() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}
