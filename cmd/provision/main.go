package main

// Create or update a user's role, for example the first staff account:
//   go run ./cmd/provision -user staff-1 -email staff@example.edu -role elevated

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"admissions-backend/internal/bootstrap"
	"admissions-backend/internal/shared/config"
	"admissions-backend/internal/shared/telemetry"
	"admissions-backend/internal/users"
)

func main() {
	userID := flag.String("user", "", "user id (token subject)")
	email := flag.String("email", "", "email, required when the user does not exist yet")
	name := flag.String("name", "", "full name for a new user")
	role := flag.String("role", users.RoleElevated, "standard or elevated")
	active := flag.Bool("active", true, "whether the user may act")
	flag.Parse()

	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("provision.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if app.DB == nil {
		telemetry.Warn("provision.memory_mode", map[string]any{"reason": "no database; change will not persist"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	user := users.User{ID: *userID, Email: *email, FullName: *name}
	if err := app.UsersService.Provision(ctx, user, *role, *active); err != nil {
		telemetry.Error("provision.failed", map[string]any{"user_id": *userID, "error": err.Error()})
		os.Exit(1)
	}
}
