package documents

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var documentColumnNames = []string{
	"id", "application_id", "document_type", "original_filename", "stored_key", "storage_backend",
	"uploaded_by", "uploaded_at", "mime_type", "size_bytes", "checksum_sha256", "page_count",
	"verification_status", "verification_notes", "verified_by", "verified_at", "is_required",
}

func TestPGRepoInsertCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	pages := 3
	doc := Document{
		ID: "d1", ApplicationID: "app-1", Type: TypeTranscript, OriginalFilename: "t.pdf",
		StoredKey: "documents/app-1/k.pdf", StorageBackend: "s3", UploadedBy: "student-1", UploadedAt: now,
		MimeType: "application/pdf", SizeBytes: 42, ChecksumSHA256: "abc", PageCount: &pages, IsRequired: true,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WithArgs("d1", "app-1", "transcript", "t.pdf", "documents/app-1/k.pdf", "s3", "student-1", now,
			"application/pdf", int64(42), "abc", int64(3), "pending", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	if err := repo.Insert(context.Background(), doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoInsertRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	if err := repo.Insert(context.Background(), Document{ID: "d1"}); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(documentColumnNames).
		AddRow("d1", "app-1", "photo", "me.png", "k", "local", "student-1", now, "image/png", int64(10), "abc", nil,
			"verified", "ok", "staff-1", now, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).WithArgs("d1").WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	doc, err := repo.GetByID(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.Type != TypePhoto || doc.VerificationStatus != StatusVerified || doc.PageCount != nil {
		t.Fatalf("unexpected doc %+v", doc)
	}
	if doc.VerifiedBy == nil || *doc.VerifiedBy != "staff-1" || doc.VerificationNotes == nil {
		t.Fatalf("expected review fields, got %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).WithArgs("nope").WillReturnRows(sqlmock.NewRows(documentColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM documents")).WithArgs("nope").WillReturnRows(sqlmock.NewRows(documentColumnNames))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoExistsByStoredKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("k1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := &PGRepo{DB: db}
	ok, err := repo.ExistsByStoredKey(context.Background(), "k1")
	if err != nil || !ok {
		t.Fatalf("expected true, got %v %v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMemoryRepoRejectsDuplicateStoredKey(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if err := repo.Insert(ctx, Document{ID: "a", StoredKey: "k"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := repo.Insert(ctx, Document{ID: "b", StoredKey: "k"}); err == nil {
		t.Fatalf("expected duplicate stored key error")
	}
	ok, _ := repo.ExistsByStoredKey(ctx, "k")
	if !ok {
		t.Fatalf("expected key to exist")
	}
}
