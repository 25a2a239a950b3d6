// Package integrity records inconsistencies between document metadata and
// blob storage, and reconciles them out of band.
package integrity

import (
	"context"
	"errors"
	"time"
)

// Kind names the inconsistency.
type Kind string

const (
	// KindOrphanedBlob: blob written, metadata insert failed, cleanup failed.
	KindOrphanedBlob Kind = "orphaned_blob"
	// KindMissingBlob: metadata exists but the blob could not be found at serve time.
	KindMissingBlob Kind = "missing_blob"
	// KindBlobDeleteFailed: metadata deleted but the blob delete failed.
	KindBlobDeleteFailed Kind = "blob_delete_failed"
)

// ErrNotFound is returned when an event id is unknown.
var ErrNotFound = errors.New("integrity event not found")

// Event is one recorded inconsistency.
type Event struct {
	ID         string
	Kind       Kind
	DocumentID string
	StoredKey  string
	Backend    string
	Detail     string
	CreatedAt  time.Time
	ResolvedAt *time.Time
	// Attempts counts sweeps that examined the event without resolving it.
	Attempts      int
	LastCheckedAt *time.Time
}

// Repo persists integrity events. At most one unresolved event exists per
// kind and stored key; Record reports false when ev duplicates an open one.
// ListUnresolved returns never-checked events first, then the least recently
// checked, so pending events cannot starve newer ones.
type Repo interface {
	Record(ctx context.Context, ev Event) (bool, error)
	ListUnresolved(ctx context.Context, limit int) ([]Event, error)
	MarkChecked(ctx context.Context, id string, at time.Time) error
	MarkResolved(ctx context.Context, id string, at time.Time) error
}
