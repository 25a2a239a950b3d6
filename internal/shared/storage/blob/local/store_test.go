package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"admissions-backend/internal/shared/storage/blob"
)

func TestPutGetDelete(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blobs")
	store := New(root)
	ctx := context.Background()
	key := "documents/app-1/app-1_photo_1_abcd.png"
	data := []byte("\x89PNG\r\n\x1a\nrest-of-image")

	if err := store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("stat root: %v", err)
	}
	if perm := info.Mode().Perm(); perm != dirPerm {
		t.Fatalf("expected root perm %o, got %o", dirPerm, perm)
	}
	fileInfo, err := os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("stat blob: %v", err)
	}
	if perm := fileInfo.Mode().Perm(); perm != filePerm {
		t.Fatalf("expected file perm %o, got %o", filePerm, perm)
	}

	obj, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, err := io.ReadAll(obj.Body)
	_ = obj.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch")
	}
	if obj.Size != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), obj.Size)
	}
	if _, ok := obj.Body.(io.Seeker); !ok {
		t.Fatalf("expected seekable body")
	}
	if obj.ContentType != "image/png" {
		t.Fatalf("expected content type image/png, got %q", obj.ContentType)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete should be idempotent: %v", err)
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(key)) + contentTypeSuffix); !os.IsNotExist(err) {
		t.Fatalf("content type sidecar left behind: %v", err)
	}
}

func TestContentTypeSidecar(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	key := "documents/app-1/app-1_transcript_1_abcd.pdf"
	data := []byte("%PDF-1.4 body")

	if err := store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// Overwriting without a content type clears the old one.
	if err := store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), ""); err != nil {
		t.Fatalf("Put: %v", err)
	}
	obj, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	_ = obj.Body.Close()
	if obj.ContentType != "" {
		t.Fatalf("expected empty content type, got %q", obj.ContentType)
	}

	if err := store.Put(ctx, key+contentTypeSuffix, bytes.NewReader(data), int64(len(data)), "text/plain"); !errors.Is(err, blob.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey for sidecar key, got %v", err)
	}
	if _, err := store.Get(ctx, key+contentTypeSuffix); !errors.Is(err, blob.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey reading sidecar key, got %v", err)
	}
}

func TestPutShortWriteLeavesNoBlob(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	key := "documents/app-1/short.pdf"

	err := store.Put(ctx, key, bytes.NewReader([]byte("abc")), 10, "application/pdf")
	if err == nil {
		t.Fatalf("expected size mismatch error")
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected no blob after failed put, got %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(store.root, "documents", "app-1"))
	if len(entries) != 0 {
		t.Fatalf("expected temp files cleaned up, found %d entries", len(entries))
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if err := store.Put(ctx, "../escape.txt", bytes.NewReader(nil), 0, ""); !errors.Is(err, blob.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey on put, got %v", err)
	}
	if _, err := store.Get(ctx, "/etc/passwd"); !errors.Is(err, blob.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey on get, got %v", err)
	}
}
