package health

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"admissions-backend/internal/shared/storage/db"
)

// Service reports readiness of the database and the configured blob backend.
type Service struct {
	DB          *sql.DB
	BlobBackend string
	Timeout     time.Duration
}

// NewService constructs a new health service.
func NewService(database *sql.DB, blobBackend string) *Service {
	return &Service{DB: database, BlobBackend: blobBackend, Timeout: 2 * time.Second}
}

// Status returns a health payload and whether the service is ready.
// Running without a database (memory mode) counts as ready.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	out := map[string]any{"ok": true, "blobBackend": s.BlobBackend}
	err := db.Ping(ctx, s.DB, s.Timeout)
	switch {
	case errors.Is(err, db.ErrNoDatabase):
		out["database"] = "memory"
	case err != nil:
		out["database"] = "unavailable"
		out["ok"] = false
		return out, false
	default:
		out["database"] = "ok"
	}
	return out, true
}
