package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"admissions-backend/internal/applications"
	googleauth "admissions-backend/internal/auth"
	"admissions-backend/internal/documents"
	"admissions-backend/internal/services/health"
	"admissions-backend/internal/shared/config"
	"admissions-backend/internal/shared/metrics"
	"admissions-backend/internal/shared/server/middleware"
	"admissions-backend/internal/shared/server/respond"
	"admissions-backend/internal/users"
)

const uploadRateGroup = "UPLOAD"

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config             config.Config
	Health             *health.Service
	DocumentHandler    *documents.Handler
	ApplicationHandler *applications.Handler
	UserHandler        *users.Handler
	GoogleAuth         *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(cfg.Env),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		status, ready := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.UploadMiddleware = append(deps.DocumentHandler.UploadMiddleware, UploadRateLimit(cfg))
		deps.DocumentHandler.RegisterRoutes(api)
	}

	return r
}

// UploadRateLimit throttles uploads per actor using the configured token bucket.
// A zero rate disables it.
func UploadRateLimit(cfg config.Config) gin.HandlerFunc {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.UploadRateLimit > 0 && cfg.UploadBurst > 0 {
		rules[uploadRateGroup] = middleware.RateLimitRule{Rate: cfg.UploadRateLimit, Burst: cfg.UploadBurst}
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: uploadRateGroup,
	})
}

// Addr normalizes the listen address.
func Addr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
