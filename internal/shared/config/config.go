package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"admissions-backend/internal/shared/telemetry"
)

// documentTypes lists the type names accepted in DOC_<TYPE>_* overrides.
var documentTypes = []string{
	"transcript",
	"certificate",
	"identity",
	"photo",
	"personal_statement",
	"recommendation_letter",
}

// PolicyOverride replaces parts of the built-in policy for one document type.
// Zero values leave the default untouched.
type PolicyOverride struct {
	MaxBytes  int64
	MIMETypes []string
}

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	DatabaseURL     string
	CORSAllowOrigin []string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	MinioSSE        bool
	SignedURLTTL    time.Duration

	NotifyQueueURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	UploadRateLimit float64
	UploadBurst     int

	// SeedDemoData loads demo users and applications into in-memory repositories.
	SeedDemoData bool

	DocumentPolicy map[string]PolicyOverride
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := NormalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if !IsDevLike(env) && dbURL == "" {
		telemetry.Error("config.missing", map[string]any{"key": "DATABASE_URL"})
	}
	if !IsDevLike(env) && strings.TrimSpace(os.Getenv("JWT_SECRET")) == "" {
		telemetry.Error("config.missing", map[string]any{"key": "JWT_SECRET"})
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		Env:                env,
		DatabaseURL:        dbURL,
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data/documents"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		MinioEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:        getEnv("MINIO_BUCKET", "admissions-documents"),
		MinioUseSSL:        getBool("MINIO_USE_SSL", true),
		MinioSSE:           getBool("MINIO_SSE", false),
		SignedURLTTL:       getDuration("SIGNED_URL_TTL", 15*time.Minute),
		NotifyQueueURL:     getEnv("NOTIFY_SQS_QUEUE_URL", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
		UploadRateLimit:    getFloat("RATE_LIMIT_UPLOAD_RPS", 0.5),
		UploadBurst:        getInt("RATE_LIMIT_UPLOAD_BURST", 5),
		SeedDemoData:       getBool("SEED_DEMO_DATA", false),
		DocumentPolicy:     loadPolicyOverrides(),
	}
}

func loadPolicyOverrides() map[string]PolicyOverride {
	out := make(map[string]PolicyOverride)
	for _, docType := range documentTypes {
		prefix := "DOC_" + strings.ToUpper(docType) + "_"
		var o PolicyOverride
		if v := getInt64(prefix+"MAX_BYTES", 0); v > 0 {
			o.MaxBytes = v
		}
		if raw := os.Getenv(prefix + "MIME_TYPES"); raw != "" {
			for _, m := range splitAndTrim(raw) {
				o.MIMETypes = append(o.MIMETypes, strings.ToLower(m))
			}
		}
		if o.MaxBytes > 0 || len(o.MIMETypes) > 0 {
			out[docType] = o
		}
	}
	return out
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		telemetry.Error("config.invalid", map[string]any{"key": key, "err": err})
		return def
	}
	return v
}

func getInt(key string, def int) int {
	return int(getInt64(key, int64(def)))
}

func getInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		telemetry.Error("config.invalid", map[string]any{"key": key, "err": err})
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		telemetry.Error("config.invalid", map[string]any{"key": key, "err": err})
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		telemetry.Error("config.invalid", map[string]any{"key": key, "value": raw})
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// NormalizeEnv maps ENV onto dev, local, staging or production. Unknown
// values are treated as production so a typo never enables dev shortcuts.
func NormalizeEnv(raw string) string {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "", "dev", "development":
		return "dev"
	case "local":
		return "local"
	case "staging", "stage":
		return "staging"
	case "production", "prod":
		return "production"
	default:
		telemetry.Warn("config.env_unknown", map[string]any{"value": v, "treated_as": "production"})
		return "production"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	case "memory":
		return "memory"
	default:
		return "local"
	}
}

// IsDevLike reports whether env permits in-memory fallbacks and header identities.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
