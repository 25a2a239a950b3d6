package integrity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admissions-backend/internal/shared/storage/blob"
	"admissions-backend/internal/shared/telemetry"
)

// KeyIndex answers whether document metadata still references a blob key.
type KeyIndex interface {
	ExistsByStoredKey(ctx context.Context, storedKey string) (bool, error)
}

// Reconciler resolves recorded integrity events against the live stores.
type Reconciler struct {
	Repo  Repo
	Store blob.Store
	Keys  KeyIndex
	Now   func() time.Time
	// BatchSize bounds how many events one Sweep examines.
	BatchSize int
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Examined   int
	Resolved   int
	Unresolved int
}

// Sweep walks one batch of unresolved events. Blob keys that metadata no
// longer references are deleted; keys still referenced are left alone. A
// missing blob is resolved once it is readable again. Events left pending
// are stamped as checked so the next sweep reaches the ones behind them.
func (r *Reconciler) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	events, err := r.Repo.ListUnresolved(ctx, r.BatchSize)
	if err != nil {
		return res, fmt.Errorf("list integrity events: %w", err)
	}

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Examined++

		resolved, detail, err := r.reconcile(ctx, ev)
		fields := map[string]any{
			"event_id":   ev.ID,
			"kind":       string(ev.Kind),
			"stored_key": ev.StoredKey,
			"backend":    ev.Backend,
		}
		if err != nil {
			fields["error"] = err
			telemetry.Warn("integrity.reconcile_failed", fields)
			res.Unresolved++
			r.markChecked(ctx, ev, fields)
			continue
		}
		if !resolved {
			fields["detail"] = detail
			fields["attempts"] = ev.Attempts + 1
			telemetry.Info("integrity.reconcile_pending", fields)
			res.Unresolved++
			r.markChecked(ctx, ev, fields)
			continue
		}
		if err := r.Repo.MarkResolved(ctx, ev.ID, r.now()); err != nil && !errors.Is(err, ErrNotFound) {
			fields["error"] = err
			telemetry.Error("integrity.resolve_failed", fields)
			res.Unresolved++
			continue
		}
		fields["detail"] = detail
		telemetry.Info("integrity.resolved", fields)
		res.Resolved++
	}
	return res, nil
}

// markChecked moves a pending event to the back of the queue.
func (r *Reconciler) markChecked(ctx context.Context, ev Event, fields map[string]any) {
	if err := r.Repo.MarkChecked(ctx, ev.ID, r.now()); err != nil && !errors.Is(err, ErrNotFound) {
		fields["error"] = err
		telemetry.Error("integrity.check_failed", fields)
	}
}

func (r *Reconciler) reconcile(ctx context.Context, ev Event) (bool, string, error) {
	if r.Store != nil && ev.Backend != "" && ev.Backend != r.Store.Backend() {
		return false, "event belongs to backend " + ev.Backend, nil
	}

	switch ev.Kind {
	case KindOrphanedBlob, KindBlobDeleteFailed:
		referenced, err := r.Keys.ExistsByStoredKey(ctx, ev.StoredKey)
		if err != nil {
			return false, "", err
		}
		if referenced {
			return true, "key referenced by metadata; kept", nil
		}
		if err := r.Store.Delete(ctx, ev.StoredKey); err != nil {
			return false, "", err
		}
		return true, "blob deleted", nil

	case KindMissingBlob:
		referenced, err := r.Keys.ExistsByStoredKey(ctx, ev.StoredKey)
		if err != nil {
			return false, "", err
		}
		if !referenced {
			return true, "metadata removed", nil
		}
		obj, err := r.Store.Get(ctx, ev.StoredKey)
		if errors.Is(err, blob.ErrNotFound) {
			return false, "blob still missing", nil
		}
		if err != nil {
			return false, "", err
		}
		_ = obj.Body.Close()
		return true, "blob present", nil

	default:
		return false, "unknown kind", nil
	}
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
