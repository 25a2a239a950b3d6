package bootstrap

import (
	"context"
	"time"

	"admissions-backend/internal/applications"
	"admissions-backend/internal/shared/telemetry"
	"admissions-backend/internal/users"
)

// Demo identities loaded by SeedDemo. Use them with the X-Actor-Id header in dev.
const (
	DemoStudentA = "student-1"
	DemoStudentB = "student-2"
	DemoStaff    = "staff-1"
	DemoInactive = "staff-2"
	DemoAppA     = "app-1"
	DemoAppB     = "app-2"
)

// SeedDemo loads two students each owning one application, one active staff
// member and one deactivated staff member.
func SeedDemo(ctx context.Context, app *App) error {
	people := []struct {
		user   users.User
		role   string
		active bool
	}{
		{users.User{ID: DemoStudentA, Email: "student1@example.edu", FullName: "Student One"}, users.RoleStandard, true},
		{users.User{ID: DemoStudentB, Email: "student2@example.edu", FullName: "Student Two"}, users.RoleStandard, true},
		{users.User{ID: DemoStaff, Email: "staff1@example.edu", FullName: "Staff One"}, users.RoleElevated, true},
		{users.User{ID: DemoInactive, Email: "staff2@example.edu", FullName: "Staff Two"}, users.RoleElevated, false},
	}
	for _, p := range people {
		if err := app.UsersRepo.Upsert(ctx, p.user); err != nil {
			return err
		}
		if err := app.UsersService.SetRole(ctx, p.user.ID, p.role, p.active); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	for id, owner := range map[string]string{DemoAppA: DemoStudentA, DemoAppB: DemoStudentB} {
		err := app.ApplicationsRepo.Create(ctx, applications.Application{
			ID:        id,
			OwnerID:   owner,
			Status:    applications.StatusDraft,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
	}
	telemetry.Info("bootstrap.seeded", map[string]any{"users": len(people), "applications": 2})
	return nil
}
