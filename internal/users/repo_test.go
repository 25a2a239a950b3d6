package users

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMemoryRepoUpsertKeepsRole(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if err := repo.Upsert(ctx, User{ID: "u1", Email: "a@example.edu"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	user, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Role != RoleStandard || !user.IsActive {
		t.Fatalf("expected active standard user, got %+v", user)
	}

	if err := repo.SetRole(ctx, "u1", RoleElevated, true); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if err := repo.Upsert(ctx, User{ID: "u1", Email: "b@example.edu", Role: RoleStandard}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	user, _ = repo.GetByID(ctx, "u1")
	if user.Role != RoleElevated {
		t.Fatalf("expected role to survive upsert, got %q", user.Role)
	}
	if user.Email != "b@example.edu" {
		t.Fatalf("expected email updated, got %q", user.Email)
	}
}

func TestMemoryRepoSetRoleUnknownUser(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.SetRole(context.Background(), "missing", RoleElevated, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceSetRoleRejectsUnknownRole(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.SetRole(context.Background(), "u1", "admin", true); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestServiceUpsertFromAuthForcesStandard(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	if err := svc.UpsertFromAuth(context.Background(), User{ID: "google:1", Email: "x@example.edu", Role: RoleElevated}); err != nil {
		t.Fatalf("UpsertFromAuth: %v", err)
	}
	user, _ := repo.GetByID(context.Background(), "google:1")
	if user.Role != RoleStandard {
		t.Fatalf("expected standard role, got %q", user.Role)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "email", "full_name", "given_name", "family_name", "picture_url", "role", "is_active", "created_at", "updated_at"}).
		AddRow("u1", "a@example.edu", "Ada L", nil, nil, nil, "elevated", false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).WithArgs("u1").WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	user, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Role != RoleElevated || user.IsActive {
		t.Fatalf("unexpected role fields: %+v", user)
	}
	if user.FullName != "Ada L" || user.GivenName != "" {
		t.Fatalf("unexpected names: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoSetRoleNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs("elevated", true, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.SetRole(context.Background(), "missing", RoleElevated, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoUpsertDoesNotTouchRoleOnConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE SET\s+email = EXCLUDED.email`).
		WithArgs("u1", "a@example.edu", nil, nil, nil, nil, "standard").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	if err := repo.Upsert(context.Background(), User{ID: "u1", Email: "a@example.edu"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
