package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PGRepo stores audit entries in Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Record inserts an entry. A missing ID is generated.
func (r *PGRepo) Record(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO document_access_log (id, actor_id, action, document_id, application_id, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if _, err := r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		nullable(entry.DocumentID),
		nullable(entry.ApplicationID),
		entry.OccurredAt,
	); err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}
	return nil
}

// ListByDocument returns entries for a document, oldest first.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]Entry, error) {
	const query = `
SELECT id, actor_id, action, document_id, application_id, occurred_at
FROM document_access_log
WHERE document_id = $1
ORDER BY occurred_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var docID, appID sql.NullString
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &docID, &appID, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.DocumentID = docID.String
		e.ApplicationID = appID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
