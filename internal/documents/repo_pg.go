package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, application_id, document_type, original_filename, stored_key, storage_backend,
    uploaded_by, uploaded_at, mime_type, size_bytes, checksum_sha256, page_count,
    verification_status, verification_notes, verified_by, verified_at, is_required`

// Insert writes a document row inside its own transaction so readers never
// observe a partially written row.
func (r *PGRepo) Insert(ctx context.Context, doc Document) (err error) {
	const query = `
INSERT INTO documents (
    id,
    application_id,
    document_type,
    original_filename,
    stored_key,
    storage_backend,
    uploaded_by,
    uploaded_at,
    mime_type,
    size_bytes,
    checksum_sha256,
    page_count,
    verification_status,
    is_required
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	status := doc.VerificationStatus
	if status == "" {
		status = StatusPending
	}
	var checksum sql.NullString
	if doc.ChecksumSHA256 != "" {
		checksum = sql.NullString{String: doc.ChecksumSHA256, Valid: true}
	}
	var pages sql.NullInt64
	if doc.PageCount != nil {
		pages = sql.NullInt64{Int64: int64(*doc.PageCount), Valid: true}
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert document: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.ApplicationID,
		string(doc.Type),
		doc.OriginalFilename,
		doc.StoredKey,
		doc.StorageBackend,
		doc.UploadedBy,
		doc.UploadedAt,
		doc.MimeType,
		doc.SizeBytes,
		checksum,
		pages,
		string(status),
		doc.IsRequired,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit insert document: %w", err)
	}
	return nil
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE id = $1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByApplication lists an application's documents, oldest first.
func (r *PGRepo) ListByApplication(ctx context.Context, applicationID string) ([]Document, error) {
	query := `SELECT ` + documentColumns + `
FROM documents
WHERE application_id = $1
ORDER BY uploaded_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateVerification sets the review fields and returns the updated row.
func (r *PGRepo) UpdateVerification(ctx context.Context, documentID string, status VerificationStatus, notes *string, verifiedBy string, verifiedAt time.Time) (Document, error) {
	query := `
UPDATE documents
SET verification_status = $1, verification_notes = $2, verified_by = $3, verified_at = $4
WHERE id = $5
RETURNING ` + documentColumns

	var notesArg sql.NullString
	if notes != nil {
		notesArg = sql.NullString{String: *notes, Valid: true}
	}
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, string(status), notesArg, verifiedBy, verifiedAt, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// Delete removes a document row and returns it.
func (r *PGRepo) Delete(ctx context.Context, documentID string) (Document, error) {
	query := `
DELETE FROM documents
WHERE id = $1
RETURNING ` + documentColumns

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ExistsByStoredKey reports whether any document references storedKey.
func (r *PGRepo) ExistsByStoredKey(ctx context.Context, storedKey string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM documents WHERE stored_key = $1)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, storedKey).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var docType, status string
	var checksum sql.NullString
	var pages sql.NullInt64
	var notes sql.NullString
	var verifiedBy sql.NullString
	var verifiedAt sql.NullTime
	if err := row.Scan(
		&doc.ID,
		&doc.ApplicationID,
		&docType,
		&doc.OriginalFilename,
		&doc.StoredKey,
		&doc.StorageBackend,
		&doc.UploadedBy,
		&doc.UploadedAt,
		&doc.MimeType,
		&doc.SizeBytes,
		&checksum,
		&pages,
		&status,
		&notes,
		&verifiedBy,
		&verifiedAt,
		&doc.IsRequired,
	); err != nil {
		return Document{}, err
	}
	doc.Type = DocumentType(docType)
	doc.VerificationStatus = VerificationStatus(status)
	if checksum.Valid {
		doc.ChecksumSHA256 = checksum.String
	}
	if pages.Valid {
		n := int(pages.Int64)
		doc.PageCount = &n
	}
	if notes.Valid {
		doc.VerificationNotes = &notes.String
	}
	if verifiedBy.Valid {
		doc.VerifiedBy = &verifiedBy.String
	}
	if verifiedAt.Valid {
		doc.VerifiedAt = &verifiedAt.Time
	}
	return doc, nil
}

var _ DocumentsRepo = (*PGRepo)(nil)
