package audit

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable is returned by a MemoryRepo configured to fail.
var ErrUnavailable = errors.New("audit store unavailable")

// MemoryRepo keeps audit entries in process memory.
type MemoryRepo struct {
	mu      sync.RWMutex
	entries []Entry

	// Fail makes Record return ErrUnavailable.
	Fail bool
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Record appends an entry.
func (r *MemoryRepo) Record(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return ErrUnavailable
	}
	r.entries = append(r.entries, entry)
	return nil
}

// ListByDocument returns entries for a document in insertion order.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0)
	for _, e := range r.entries {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns a copy of every entry.
func (r *MemoryRepo) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entry(nil), r.entries...)
}

var _ Repo = (*MemoryRepo)(nil)
