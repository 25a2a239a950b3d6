package integrity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo keeps integrity events in process memory.
type MemoryRepo struct {
	mu     sync.RWMutex
	events map[string]Event
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{events: make(map[string]Event)}
}

// Record stores an event unless an unresolved one with the same kind and
// stored key already exists.
func (r *MemoryRepo) Record(ctx context.Context, ev Event) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, open := range r.events {
		if open.ResolvedAt == nil && open.Kind == ev.Kind && open.StoredKey == ev.StoredKey {
			return false, nil
		}
	}
	r.events[ev.ID] = ev
	return true, nil
}

// ListUnresolved returns unresolved events, never-checked first, then least
// recently checked, then oldest. limit <= 0 means no limit.
func (r *MemoryRepo) ListUnresolved(ctx context.Context, limit int) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Event, 0)
	for _, ev := range r.events {
		if ev.ResolvedAt == nil {
			out = append(out, ev)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].LastCheckedAt, out[j].LastCheckedAt
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkChecked records an unsuccessful examination of an event.
func (r *MemoryRepo) MarkChecked(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok {
		return ErrNotFound
	}
	ev.Attempts++
	ev.LastCheckedAt = &at
	r.events[id] = ev
	return nil
}

// MarkResolved stamps an event as resolved.
func (r *MemoryRepo) MarkResolved(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok {
		return ErrNotFound
	}
	ev.ResolvedAt = &at
	r.events[id] = ev
	return nil
}

// Get returns an event by id.
func (r *MemoryRepo) Get(id string) (Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.events[id]
	return ev, ok
}

// All returns every event, oldest first.
func (r *MemoryRepo) All() []Event {
	r.mu.RLock()
	out := make([]Event, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

var _ Repo = (*MemoryRepo)(nil)
