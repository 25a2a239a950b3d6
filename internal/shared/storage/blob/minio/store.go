package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"admissions-backend/internal/shared/storage/blob"
)

// Options configures a MinIO-backed store.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// SSE requests server-side encryption (SSE-S3) for every object.
	SSE bool
}

// Store implements blob.Store against MinIO or any S3-compatible endpoint.
type Store struct {
	client *minio.Client
	bucket string
	sse    bool
}

// New connects to the endpoint and creates the bucket when it does not exist.
func New(ctx context.Context, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("minio make bucket %s: %w", opts.Bucket, err)
		}
	}

	return &Store{client: client, bucket: opts.Bucket, sse: opts.SSE}, nil
}

// Backend implements blob.Store.
func (s *Store) Backend() string { return "minio" }

// Put uploads r under key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	clean, err := blob.CleanKey(key)
	if err != nil {
		return err
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	if s.sse {
		opts.ServerSideEncryption = encrypt.NewSSE()
	}
	if _, err := s.client.PutObject(ctx, s.bucket, clean, r, size, opts); err != nil {
		return fmt.Errorf("minio put object bucket=%s key=%s: %w", s.bucket, clean, err)
	}
	return nil
}

// Get opens an object. The returned body is a *minio.Object, which supports seeking.
func (s *Store) Get(ctx context.Context, key string) (blob.Object, error) {
	clean, err := blob.CleanKey(key)
	if err != nil {
		return blob.Object{}, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, clean, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return blob.Object{}, blob.ErrNotFound
		}
		return blob.Object{}, fmt.Errorf("minio get object bucket=%s key=%s: %w", s.bucket, clean, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before any bytes are served.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return blob.Object{}, blob.ErrNotFound
		}
		return blob.Object{}, fmt.Errorf("minio stat object bucket=%s key=%s: %w", s.bucket, clean, err)
	}

	return blob.Object{
		Body:        obj,
		Size:        info.Size,
		ContentType: info.ContentType,
		ModTime:     info.LastModified,
	}, nil
}

// Delete removes an object. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	clean, err := blob.CleanKey(key)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, clean, minio.RemoveObjectOptions{}); err != nil && !isNotFound(err) {
		return fmt.Errorf("minio remove object bucket=%s key=%s: %w", s.bucket, clean, err)
	}
	return nil
}

// PresignGet returns a time-limited GET URL for key.
func (s *Store) PresignGet(ctx context.Context, key string, ttl time.Duration, contentDisposition string) (string, error) {
	clean, err := blob.CleanKey(key)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = blob.DefaultPresignTTL
	}

	params := url.Values{}
	if contentDisposition != "" {
		params.Set("response-content-disposition", contentDisposition)
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, clean, ttl, params)
	if err != nil {
		return "", fmt.Errorf("minio presign get: %w", err)
	}
	return u.String(), nil
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		resp = minio.ToErrorResponse(err)
	}
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

var (
	_ blob.Store     = (*Store)(nil)
	_ blob.Presigner = (*Store)(nil)
)
