package main

import (
	"os"

	"admissions-backend/internal/bootstrap"
	"admissions-backend/internal/shared/config"
	"admissions-backend/internal/shared/server"
	"admissions-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("api.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	addr := server.Addr(cfg.Port)
	telemetry.Info("api.starting", map[string]any{
		"addr":    addr,
		"env":     cfg.Env,
		"backend": app.Store.Backend(),
	})

	if err := app.Router.Run(addr); err != nil {
		telemetry.Error("api.server_error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
