package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"admissions-backend/internal/shared/storage/blob"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600

	// contentTypeSuffix names the sidecar file holding a blob's content type.
	contentTypeSuffix = ".content-type"
)

// Store implements blob.Store on the local filesystem. Keys are relative
// paths under root; the root is created on first use. Each blob's content
// type is kept in a sidecar file next to it.
type Store struct {
	root string

	once    sync.Once
	initErr error
}

// New creates a local blob store rooted at root.
func New(root string) *Store {
	return &Store{root: root}
}

// Backend implements blob.Store.
func (s *Store) Backend() string { return "local" }

func (s *Store) ensureRoot() error {
	s.once.Do(func() {
		if err := os.MkdirAll(s.root, dirPerm); err != nil {
			s.initErr = fmt.Errorf("create blob root: %w", err)
			return
		}
		s.initErr = os.Chmod(s.root, dirPerm)
	})
	return s.initErr
}

func (s *Store) resolve(key string) (string, error) {
	clean, err := blob.CleanKey(key)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(clean, contentTypeSuffix) {
		return "", blob.ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put writes r to a temp file beside the target and renames it into place,
// so readers never observe a partially written blob.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureRoot(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("write body: wrote %d bytes, expected %d", written, size)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := writeContentType(fullPath, contentType); err != nil {
		return err
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(fullPath + contentTypeSuffix)
		return fmt.Errorf("rename: %w", err)
	}
	committed = true
	return nil
}

func writeContentType(fullPath, contentType string) error {
	sidecar := fullPath + contentTypeSuffix
	if contentType == "" {
		if err := os.Remove(sidecar); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove content type: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(sidecar, []byte(contentType), filePerm); err != nil {
		return fmt.Errorf("write content type: %w", err)
	}
	return nil
}

// readContentType returns "" when the blob was stored without one.
func readContentType(fullPath string) string {
	raw, err := os.ReadFile(fullPath + contentTypeSuffix)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// Get opens a stored blob. The returned body is an *os.File and supports seeking.
func (s *Store) Get(ctx context.Context, key string) (blob.Object, error) {
	if err := ctx.Err(); err != nil {
		return blob.Object{}, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return blob.Object{}, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return blob.Object{}, blob.ErrNotFound
		}
		return blob.Object{}, fmt.Errorf("open blob: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return blob.Object{}, fmt.Errorf("stat blob: %w", err)
	}
	return blob.Object{
		Body:        f,
		Size:        info.Size(),
		ContentType: readContentType(fullPath),
		ModTime:     info.ModTime(),
	}, nil
}

// Delete removes a blob. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	if err := os.Remove(fullPath + contentTypeSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove content type: %w", err)
	}
	return nil
}

var _ blob.Store = (*Store)(nil)
