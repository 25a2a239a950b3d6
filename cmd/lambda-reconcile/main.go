package main

// Scheduled integrity sweep for EventBridge:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-reconcile

import (
	"context"
	"os"
	"strconv"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"admissions-backend/internal/bootstrap"
	"admissions-backend/internal/integrity"
	"admissions-backend/internal/shared/config"
	"admissions-backend/internal/shared/telemetry"
)

var (
	initMu sync.Mutex
	app    *bootstrap.App
)

func getApp() (*bootstrap.App, error) {
	initMu.Lock()
	defer initMu.Unlock()
	if app != nil {
		return app, nil
	}
	built, err := bootstrap.Build(config.Load())
	if err != nil {
		return nil, err
	}
	app = built
	return app, nil
}

func handler(ctx context.Context, event events.CloudWatchEvent) (integrity.SweepResult, error) {
	a, err := getApp()
	if err != nil {
		telemetry.Error("reconcile.bootstrap_failed", map[string]any{"error": err.Error()})
		return integrity.SweepResult{}, err
	}

	rec := a.Reconciler()
	rec.BatchSize = batchSize()
	res, err := rec.Sweep(ctx)
	if err != nil {
		telemetry.Error("reconcile.failed", map[string]any{"event_id": event.ID, "error": err.Error()})
		return res, err
	}
	telemetry.Info("reconcile.complete", map[string]any{
		"event_id":   event.ID,
		"examined":   res.Examined,
		"resolved":   res.Resolved,
		"unresolved": res.Unresolved,
	})
	return res, nil
}

func batchSize() int {
	if v, err := strconv.Atoi(os.Getenv("RECONCILE_BATCH_SIZE")); err == nil && v > 0 {
		return v
	}
	return 100
}

func main() {
	lambda.Start(handler)
}
