// Package notifications emits one-way events about document activity.
package notifications

import (
	"context"
	"encoding/json"
	"time"
)

// EventDocumentsUploaded is emitted after an upload batch completes.
const EventDocumentsUploaded = "documents.uploaded"

// Event is the payload delivered to downstream consumers.
type Event struct {
	Event         string    `json:"event"`
	ApplicationID string    `json:"applicationId"`
	ActorID       string    `json:"actorId"`
	Uploaded      int       `json:"uploaded"`
	Errors        int       `json:"errors"`
	DocumentIDs   []string  `json:"documentIds"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Notifier delivers events. Callers treat failures as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// EncodeEvent returns the JSON representation of an event.
func EncodeEvent(ev Event) ([]byte, error) {
	if ev.DocumentIDs == nil {
		ev.DocumentIDs = []string{}
	}
	return json.Marshal(ev)
}
