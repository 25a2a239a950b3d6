package main

// Sweep pending integrity events once:
//   go run ./cmd/reconcile -batch 200

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"admissions-backend/internal/bootstrap"
	"admissions-backend/internal/shared/config"
	"admissions-backend/internal/shared/telemetry"
)

func main() {
	batch := flag.Int("batch", 100, "maximum events to examine")
	flag.Parse()

	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("reconcile.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if app.DB == nil {
		telemetry.Warn("reconcile.memory_mode", map[string]any{"reason": "no database; nothing persisted to sweep"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := app.Reconciler()
	rec.BatchSize = *batch
	res, err := rec.Sweep(ctx)
	if err != nil {
		telemetry.Error("reconcile.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("reconcile.complete", map[string]any{
		"examined":   res.Examined,
		"resolved":   res.Resolved,
		"unresolved": res.Unresolved,
	})
}
