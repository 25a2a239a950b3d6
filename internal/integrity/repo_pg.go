package integrity

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PGRepo persists integrity events in Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Record inserts an event unless an unresolved one with the same kind and
// stored key exists.
func (r *PGRepo) Record(ctx context.Context, ev Event) (bool, error) {
	const query = `
INSERT INTO integrity_events (id, kind, document_id, stored_key, backend, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (kind, stored_key) WHERE resolved_at IS NULL DO NOTHING`

	var docID sql.NullString
	if ev.DocumentID != "" {
		docID = sql.NullString{String: ev.DocumentID, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, query,
		ev.ID,
		string(ev.Kind),
		docID,
		ev.StoredKey,
		ev.Backend,
		ev.Detail,
		ev.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert integrity event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert integrity event: %w", err)
	}
	return n > 0, nil
}

// ListUnresolved returns unresolved events, never-checked first, then least
// recently checked.
func (r *PGRepo) ListUnresolved(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
SELECT id, kind, document_id, stored_key, backend, detail, created_at, attempts, last_checked_at
FROM integrity_events
WHERE resolved_at IS NULL
ORDER BY last_checked_at ASC NULLS FIRST, created_at ASC
LIMIT $1`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var ev Event
		var kind string
		var docID sql.NullString
		var checked sql.NullTime
		if err := rows.Scan(&ev.ID, &kind, &docID, &ev.StoredKey, &ev.Backend, &ev.Detail, &ev.CreatedAt, &ev.Attempts, &checked); err != nil {
			return nil, err
		}
		ev.Kind = Kind(kind)
		ev.DocumentID = docID.String
		if checked.Valid {
			at := checked.Time
			ev.LastCheckedAt = &at
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// MarkChecked records an unsuccessful examination of an event.
func (r *PGRepo) MarkChecked(ctx context.Context, id string, at time.Time) error {
	const query = `
UPDATE integrity_events
SET attempts = attempts + 1, last_checked_at = $1
WHERE id = $2 AND resolved_at IS NULL`

	res, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("check integrity event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkResolved stamps an event as resolved.
func (r *PGRepo) MarkResolved(ctx context.Context, id string, at time.Time) error {
	const query = `
UPDATE integrity_events
SET resolved_at = $1
WHERE id = $2 AND resolved_at IS NULL`

	res, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("resolve integrity event: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
