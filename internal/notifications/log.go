package notifications

import (
	"context"

	"admissions-backend/internal/shared/telemetry"
)

// LogNotifier writes events to the structured log. Used when no queue is configured.
type LogNotifier struct{}

// Notify logs ev.
func (LogNotifier) Notify(_ context.Context, ev Event) error {
	telemetry.Info("notifications.event", map[string]any{
		"event":          ev.Event,
		"application_id": ev.ApplicationID,
		"actor_id":       ev.ActorID,
		"uploaded":       ev.Uploaded,
		"errors":         ev.Errors,
	})
	return nil
}

var _ Notifier = LogNotifier{}
