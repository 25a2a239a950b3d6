package documents

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // documentID -> document

	// FailInserts makes Insert fail, for exercising blob cleanup paths.
	FailInserts bool
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
	}
}

// Insert stores a new document.
func (r *MemoryRepo) Insert(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailInserts {
		return fmt.Errorf("memory repo: insert disabled")
	}
	if _, exists := r.data[doc.ID]; exists {
		return fmt.Errorf("memory repo: duplicate document id %s", doc.ID)
	}
	for _, existing := range r.data {
		if existing.StoredKey == doc.StoredKey {
			return fmt.Errorf("memory repo: duplicate stored key")
		}
	}
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByApplication returns an application's documents, oldest first.
func (r *MemoryRepo) ListByApplication(ctx context.Context, applicationID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Document, 0)
	for _, doc := range r.data {
		if doc.ApplicationID == applicationID {
			out = append(out, doc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out, nil
}

// UpdateVerification sets the review fields of a document.
func (r *MemoryRepo) UpdateVerification(ctx context.Context, documentID string, status VerificationStatus, notes *string, verifiedBy string, verifiedAt time.Time) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.VerificationStatus = status
	doc.VerificationNotes = notes
	by := verifiedBy
	at := verifiedAt
	doc.VerifiedBy = &by
	doc.VerifiedAt = &at
	r.data[documentID] = doc
	return doc, nil
}

// Delete removes a document and returns the removed record.
func (r *MemoryRepo) Delete(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	delete(r.data, documentID)
	return doc, nil
}

// ExistsByStoredKey reports whether any document references storedKey.
func (r *MemoryRepo) ExistsByStoredKey(ctx context.Context, storedKey string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.data {
		if doc.StoredKey == storedKey {
			return true, nil
		}
	}
	return false, nil
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
