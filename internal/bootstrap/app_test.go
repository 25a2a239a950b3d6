package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/gin-gonic/gin"

	"admissions-backend/internal/documents"
	"admissions-backend/internal/notifications"
	"admissions-backend/internal/shared/config"
)

func TestBuildMemoryApp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(config.Config{Env: "dev", ObjectStoreType: "memory", SeedDemoData: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil {
		t.Fatalf("expected memory repositories")
	}
	if app.Store.Backend() != "memory" {
		t.Fatalf("unexpected backend %q", app.Store.Backend())
	}
	if _, ok := app.Notifier.(notifications.LogNotifier); !ok {
		t.Fatalf("expected log notifier, got %T", app.Notifier)
	}
	if app.Router == nil || app.Reconciler() == nil {
		t.Fatalf("expected router and reconciler")
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	if _, err := Build(config.Config{Env: "production"}); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestBuildRejectsMemoryStoreOutsideDev(t *testing.T) {
	if _, err := buildStore(context.Background(), config.Config{Env: "staging", ObjectStoreType: "memory"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestAdapters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := Build(config.Config{Env: "dev", ObjectStoreType: "memory", SeedDemoData: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctx := context.Background()
	roles := roleAdapter{users: app.UsersService}
	owners := ownerAdapter{apps: app.ApplicationsService}

	staff, err := roles.ActorRole(ctx, DemoStaff)
	if err != nil || staff.Role != documents.RoleElevated || !staff.Active {
		t.Fatalf("unexpected staff actor %+v %v", staff, err)
	}
	inactive, err := roles.ActorRole(ctx, DemoInactive)
	if err != nil || inactive.Active {
		t.Fatalf("expected inactive actor, got %+v %v", inactive, err)
	}
	student, _ := roles.ActorRole(ctx, DemoStudentA)
	if student.Role != documents.RoleStandard {
		t.Fatalf("expected standard role, got %q", student.Role)
	}
	if _, err := roles.ActorRole(ctx, "ghost"); !errors.Is(err, documents.ErrUnknownActor) {
		t.Fatalf("expected ErrUnknownActor, got %v", err)
	}

	owner, err := owners.ApplicationOwner(ctx, DemoAppB)
	if err != nil || owner != DemoStudentB {
		t.Fatalf("unexpected owner %q %v", owner, err)
	}
	if _, err := owners.ApplicationOwner(ctx, "missing"); !errors.Is(err, documents.ErrUnknownApplication) {
		t.Fatalf("expected ErrUnknownApplication, got %v", err)
	}
}
