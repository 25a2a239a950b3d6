package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"admissions-backend/internal/applications"
	"admissions-backend/internal/audit"
	googleauth "admissions-backend/internal/auth"
	"admissions-backend/internal/documents"
	"admissions-backend/internal/integrity"
	"admissions-backend/internal/notifications"
	"admissions-backend/internal/services/health"
	"admissions-backend/internal/shared/config"
	"admissions-backend/internal/shared/server"
	"admissions-backend/internal/shared/storage/blob"
	localstore "admissions-backend/internal/shared/storage/blob/local"
	memstore "admissions-backend/internal/shared/storage/blob/memory"
	miniostore "admissions-backend/internal/shared/storage/blob/minio"
	s3store "admissions-backend/internal/shared/storage/blob/s3"
	"admissions-backend/internal/shared/storage/db"
	"admissions-backend/internal/shared/telemetry"
	"admissions-backend/internal/users"
)

// App holds shared dependencies and the router built from them.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    blob.Store
	Notifier notifications.Notifier

	DocumentsRepo    documents.DocumentsRepo
	UsersRepo        users.Repo
	ApplicationsRepo applications.Repo
	AuditRepo        audit.Repo
	IntegrityRepo    integrity.Repo

	Integrity           *integrity.Reporter
	Gate                *documents.Gate
	DocumentsService    *documents.Service
	UsersService        *users.Service
	ApplicationsService *applications.Service
	Health              *health.Service

	DocumentsHandler    *documents.Handler
	ApplicationsHandler *applications.Handler
	UsersHandler        *users.Handler
	GoogleAuth          *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notifier, err := buildNotifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Notifier: notifier,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	if cfg.SeedDemoData {
		if app.DB != nil {
			telemetry.Warn("bootstrap.seed_skipped", map[string]any{"reason": "database configured"})
		} else if err := SeedDemo(ctx, app); err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		Health:             app.Health,
		DocumentHandler:    app.DocumentsHandler,
		ApplicationHandler: app.ApplicationsHandler,
		UserHandler:        app.UsersHandler,
		GoogleAuth:         app.GoogleAuth,
	})

	return app, nil
}

// Reconciler builds the integrity sweep over the app's stores.
func (a *App) Reconciler() *integrity.Reconciler {
	return &integrity.Reconciler{
		Repo:  a.IntegrityRepo,
		Store: a.Store,
		Keys:  a.DocumentsRepo,
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.DetectProfile())
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.AWSRegion,
			UseSSL:    cfg.MinioUseSSL,
			SSE:       cfg.MinioSSE,
		})
	case "memory":
		if !config.IsDevLike(cfg.Env) {
			return nil, fmt.Errorf("OBJECT_STORE=memory is only allowed in dev")
		}
		return memstore.New(), nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildNotifier(ctx context.Context, cfg config.Config) (notifications.Notifier, error) {
	if strings.TrimSpace(cfg.NotifyQueueURL) == "" {
		return notifications.LogNotifier{}, nil
	}
	return notifications.NewSQSNotifier(ctx, cfg.AWSRegion, cfg.NotifyQueueURL)
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.ApplicationsRepo = &applications.PGRepo{DB: app.DB}
		app.AuditRepo = &audit.PGRepo{DB: app.DB}
		app.IntegrityRepo = &integrity.PGRepo{DB: app.DB}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
		app.ApplicationsRepo = applications.NewMemoryRepo()
		app.AuditRepo = audit.NewMemoryRepo()
		app.IntegrityRepo = integrity.NewMemoryRepo()
	}

	app.UsersService = users.NewService(app.UsersRepo)
	app.ApplicationsService = applications.NewService(app.ApplicationsRepo)
	app.Integrity = &integrity.Reporter{Repo: app.IntegrityRepo}

	app.Gate = &documents.Gate{
		Repo:   app.DocumentsRepo,
		Roles:  roleAdapter{users: app.UsersService},
		Owners: ownerAdapter{apps: app.ApplicationsService},
		Audit:  app.AuditRepo,
	}
	app.DocumentsService = &documents.Service{
		Repo:         app.DocumentsRepo,
		Store:        app.Store,
		Gate:         app.Gate,
		Policy:       documents.PolicyFromConfig(app.Config.DocumentPolicy),
		Integrity:    app.Integrity,
		Notifier:     app.Notifier,
		SignedURLTTL: app.Config.SignedURLTTL,
	}
	app.Health = health.NewService(app.DB, app.Store.Backend())

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.ApplicationsHandler = applications.NewHandler(app.ApplicationsService)
	app.UsersHandler = users.NewHandler(app.UsersService)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		app.UsersService,
	)

	if app.DocumentsHandler == nil || app.UsersHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}
