package integrity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"admissions-backend/internal/shared/metrics"
	"admissions-backend/internal/shared/telemetry"
)

// Reporter logs, counts and persists integrity events. A nil Reporter or a
// nil Repo still logs.
type Reporter struct {
	Repo Repo
	Now  func() time.Time
}

// Report records ev. Persistence failures are logged and never returned, so
// callers on a request path are not failed by a broken reconciliation store.
func (r *Reporter) Report(ctx context.Context, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.now()
	}

	metrics.IncIntegrityWarning(string(ev.Kind))
	telemetry.Warn("integrity.warning", map[string]any{
		"event_id":    ev.ID,
		"kind":        string(ev.Kind),
		"document_id": ev.DocumentID,
		"stored_key":  ev.StoredKey,
		"backend":     ev.Backend,
		"detail":      ev.Detail,
	})

	if r == nil || r.Repo == nil {
		return
	}
	recorded, err := r.Repo.Record(ctx, ev)
	if err != nil {
		telemetry.Error("integrity.record_failed", map[string]any{
			"event_id":   ev.ID,
			"kind":       string(ev.Kind),
			"stored_key": ev.StoredKey,
			"error":      err,
		})
		return
	}
	if !recorded {
		telemetry.Info("integrity.already_open", map[string]any{
			"kind":       string(ev.Kind),
			"stored_key": ev.StoredKey,
		})
	}
}

func (r *Reporter) now() time.Time {
	if r != nil && r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
