package main

// API Gateway (HTTP API, payload v2) entrypoint:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"admissions-backend/internal/bootstrap"
	"admissions-backend/internal/shared/config"
	"admissions-backend/internal/shared/server/respond"
	"admissions-backend/internal/shared/telemetry"
)

var (
	initMu sync.Mutex
	proxy  *ginadapter.GinLambdaV2
)

// getProxy builds the router on first use. A failed build is retried on the
// next invocation instead of pinning the container to an error.
func getProxy() *ginadapter.GinLambdaV2 {
	initMu.Lock()
	defer initMu.Unlock()
	if proxy != nil {
		return proxy
	}
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": err.Error()})
		return nil
	}
	proxy = ginadapter.NewV2(app.Router)
	telemetry.Info("lambda.initialized", map[string]any{
		"env":      cfg.Env,
		"backend":  app.Store.Backend(),
		"database": app.DB != nil,
	})
	return proxy
}

// unavailable answers with the same error envelope the router uses.
func unavailable(requestID string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(respond.ErrorResponse{Error: respond.ErrorBody{
		Code:    "unavailable",
		Message: "service is starting or misconfigured",
	}})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-Request-Id": requestID,
		},
	}
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	p := getProxy()
	if p == nil {
		return unavailable(req.RequestContext.RequestID), nil
	}
	return p.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handler)
}
