// Package blob stores raw document bytes under opaque keys. Implementations
// live in the local, s3, minio and memory subpackages and share one contract:
// Put overwrites, Get reports ErrNotFound for a missing key, Delete is
// idempotent.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Get when no blob exists under the key.
var ErrNotFound = errors.New("blob not found")

// ErrInvalidKey is returned for keys that escape the store namespace.
var ErrInvalidKey = errors.New("invalid blob key")

// Object is an open blob. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Store defines put/get/delete of blobs by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	// Backend names the implementation for logs and metadata ("local", "s3", ...).
	Backend() string
}

// Presigner is implemented by remote stores able to hand out time-limited
// download URLs instead of streaming bytes through the API.
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration, contentDisposition string) (string, error)
}

// DefaultPresignTTL is the signed URL lifetime when none is configured.
const DefaultPresignTTL = 15 * time.Minute
