package documents

import (
	"bytes"
	"context"
	"testing"
	"time"

	"admissions-backend/internal/audit"
	"admissions-backend/internal/integrity"
	"admissions-backend/internal/shared/storage/blob/memory"
)

var (
	pdfContent  = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	pngContent  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	jpegContent = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), bytes.Repeat([]byte{0}, 32)...)
)

type fakeRoles map[string]Actor

func (f fakeRoles) ActorRole(_ context.Context, actorID string) (Actor, error) {
	a, ok := f[actorID]
	if !ok {
		return Actor{}, ErrUnknownActor
	}
	return a, nil
}

type fakeOwners map[string]string

func (f fakeOwners) ApplicationOwner(_ context.Context, applicationID string) (string, error) {
	owner, ok := f[applicationID]
	if !ok {
		return "", ErrUnknownApplication
	}
	return owner, nil
}

type testEnv struct {
	svc       *Service
	repo      *MemoryRepo
	store     *memory.Store
	audit     *audit.MemoryRepo
	integrity *integrity.MemoryRepo
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:      NewMemoryRepo(),
		store:     memory.New(),
		audit:     audit.NewMemoryRepo(),
		integrity: integrity.NewMemoryRepo(),
		now:       time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }
	gate := &Gate{
		Repo: env.repo,
		Roles: fakeRoles{
			"student-1": {ID: "student-1", Role: RoleStandard, Active: true},
			"student-2": {ID: "student-2", Role: RoleStandard, Active: true},
			"staff-1":   {ID: "staff-1", Role: RoleElevated, Active: true},
			"staff-2":   {ID: "staff-2", Role: RoleElevated, Active: false},
		},
		Owners: fakeOwners{"app-1": "student-1", "app-2": "student-2"},
		Audit:  env.audit,
		Now:    clock,
	}
	env.svc = &Service{
		Repo:      env.repo,
		Store:     env.store,
		Gate:      gate,
		Policy:    DefaultPolicy(),
		Integrity: &integrity.Reporter{Repo: env.integrity, Now: clock},
		Now:       clock,
	}
	return env
}

func fileOf(name, mimeType string, data []byte) FileInput {
	return FileInput{
		FileName:     name,
		DeclaredMIME: mimeType,
		Size:         int64(len(data)),
		Status:       UploadOK,
		Content:      bytes.NewReader(data),
	}
}

// uploadOne stores a single transcript for app-1 as student-1.
func (e *testEnv) uploadOne(t *testing.T) Document {
	t.Helper()
	res, err := e.svc.UploadDocuments(context.Background(), "app-1", "student-1", map[string]FileInput{
		"transcript": fileOf("grades.pdf", "application/pdf", pdfContent),
	})
	if err != nil {
		t.Fatalf("UploadDocuments: %v", err)
	}
	if len(res.Uploaded) != 1 {
		t.Fatalf("expected one upload, got %+v", res)
	}
	doc, err := e.repo.GetByID(context.Background(), res.Uploaded[0].DocumentID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return doc
}
