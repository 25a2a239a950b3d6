// Package memory is an in-process blob.Store for development and tests.
package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"admissions-backend/internal/shared/storage/blob"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected blob failure")

type entry struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// Store keeps blobs in a map. While a Fail* field is set, calls of that
// operation return ErrInjected.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]entry

	FailPuts    bool
	FailGets    bool
	FailDeletes bool
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{blobs: make(map[string]entry)}
}

// Backend implements blob.Store.
func (s *Store) Backend() string { return "memory" }

// Put implements blob.Store.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := blob.CleanKey(key)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("read body: got %d bytes, expected %d", len(data), size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPuts {
		return ErrInjected
	}
	s.blobs[clean] = entry{data: data, contentType: contentType, modTime: time.Now().UTC()}
	return nil
}

// Get implements blob.Store. The body is a seekable copy.
func (s *Store) Get(ctx context.Context, key string) (blob.Object, error) {
	if err := ctx.Err(); err != nil {
		return blob.Object{}, err
	}
	clean, err := blob.CleanKey(key)
	if err != nil {
		return blob.Object{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailGets {
		return blob.Object{}, ErrInjected
	}
	e, ok := s.blobs[clean]
	if !ok {
		return blob.Object{}, blob.ErrNotFound
	}
	return blob.Object{
		Body:        readSeekNopCloser{bytes.NewReader(append([]byte(nil), e.data...))},
		Size:        int64(len(e.data)),
		ContentType: e.contentType,
		ModTime:     e.modTime,
	}, nil
}

// Delete implements blob.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := blob.CleanKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDeletes {
		return ErrInjected
	}
	delete(s.blobs, clean)
	return nil
}

// PresignGet returns a memory:// URL so presign flows can be exercised without a remote store.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration, contentDisposition string) (string, error) {
	clean, err := blob.CleanKey(key)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = blob.DefaultPresignTTL
	}
	q := url.Values{}
	q.Set("expires", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	if contentDisposition != "" {
		q.Set("response-content-disposition", contentDisposition)
	}
	return (&url.URL{Scheme: "memory", Path: "/" + clean, RawQuery: q.Encode()}).String(), nil
}

// Has reports whether key is stored.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key]
	return ok
}

// Len returns the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Remove deletes a key directly, bypassing failure injection.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
}

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

var (
	_ blob.Store     = (*Store)(nil)
	_ blob.Presigner = (*Store)(nil)
)
