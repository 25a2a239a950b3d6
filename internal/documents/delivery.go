package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"admissions-backend/internal/audit"
	"admissions-backend/internal/integrity"
	"admissions-backend/internal/shared/metrics"
	"admissions-backend/internal/shared/storage/blob"
	"admissions-backend/internal/shared/telemetry"
)

// maxBufferedServe bounds how much of a non-seekable blob is read into memory
// so that range requests and read errors are handled before headers are sent.
const maxBufferedServe = 16 << 20

// Response describes a document delivery. The transport layer writes Header,
// then copies Body. Callers must Close it.
type Response struct {
	Header   http.Header
	Body     io.Reader
	Size     int64
	ModTime  time.Time
	Document Document
	// Ranged is set when Body is an io.ReadSeeker and range requests may be honored.
	Ranged bool

	closer io.Closer
}

// Close releases the underlying blob stream.
func (r *Response) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Serve authorizes actorID for documentID and opens its bytes for delivery.
// No blob is read unless the gate allows the access.
func (s *Service) Serve(ctx context.Context, documentID, actorID string, mode Mode) (*Response, error) {
	action := audit.ActionRead
	if mode == ModeDownload {
		action = audit.ActionDownload
	}

	decision, err := s.Gate.authorizeDocument(ctx, actorID, documentID, action)
	if err != nil {
		metrics.IncServe(string(mode), "error")
		return nil, err
	}
	if err := decision.Err(); err != nil {
		metrics.IncServe(string(mode), "denied")
		return nil, err
	}
	doc := decision.Document
	backend := s.Store.Backend()

	obj, err := s.Store.Get(ctx, doc.StoredKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			metrics.IncServe(string(mode), "missing_blob")
			telemetry.Warn("documents.serve.integrity", map[string]any{
				"document_id": doc.ID,
				"stored_key":  doc.StoredKey,
				"backend":     backend,
			})
			s.Integrity.Report(ctx, integrity.Event{
				Kind:       integrity.KindMissingBlob,
				DocumentID: doc.ID,
				StoredKey:  doc.StoredKey,
				Backend:    backend,
				Detail:     "metadata present, blob missing at serve",
			})
			return nil, ErrNotFound
		}
		metrics.IncServe(string(mode), "error")
		telemetry.Error("documents.serve.storage_error", map[string]any{
			"document_id": doc.ID,
			"stored_key":  doc.StoredKey,
			"backend":     backend,
			"error":       err,
		})
		return nil, fmt.Errorf("%w: get blob: %v", ErrStorage, err)
	}

	resp := &Response{
		Header:   deliveryHeaders(doc, mode),
		Body:     obj.Body,
		Size:     obj.Size,
		ModTime:  obj.ModTime,
		Document: doc,
		closer:   obj.Body,
	}
	if resp.Size <= 0 {
		resp.Size = doc.SizeBytes
	}
	if resp.ModTime.IsZero() {
		resp.ModTime = doc.UploadedAt
	}

	if _, ok := obj.Body.(io.ReadSeeker); ok {
		resp.Ranged = true
	} else if resp.Size <= maxBufferedServe {
		data, err := io.ReadAll(io.LimitReader(obj.Body, maxBufferedServe+1))
		_ = obj.Body.Close()
		if err != nil {
			metrics.IncServe(string(mode), "error")
			telemetry.Error("documents.serve.storage_error", map[string]any{
				"document_id": doc.ID,
				"stored_key":  doc.StoredKey,
				"backend":     backend,
				"error":       err,
			})
			return nil, fmt.Errorf("%w: read blob: %v", ErrStorage, err)
		}
		resp.Body = bytes.NewReader(data)
		resp.Size = int64(len(data))
		resp.Ranged = true
		resp.closer = nil
	}
	if resp.Ranged {
		if rs, ok := resp.Body.(io.ReadSeeker); ok {
			if _, err := rs.Seek(0, io.SeekStart); err != nil {
				_ = resp.Close()
				metrics.IncServe(string(mode), "error")
				return nil, fmt.Errorf("%w: seek blob: %v", ErrStorage, err)
			}
		}
	}

	metrics.IncServe(string(mode), "ok")
	return resp, nil
}

// deliveryHeaders builds the transfer headers for a document. Downloads use a
// generic content type so browsers never render them inline.
func deliveryHeaders(doc Document, mode Mode) http.Header {
	h := http.Header{}
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Disposition", contentDisposition(mode, doc.OriginalFilename))

	if mode == ModeDownload {
		h.Set("Content-Type", "application/octet-stream")
		h.Set("Cache-Control", "private, no-store")
		return h
	}

	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	h.Set("X-Frame-Options", "SAMEORIGIN")
	if contentType == mimePDF {
		h.Set("Cache-Control", "no-cache")
		h.Set("Accept-Ranges", "bytes")
	} else {
		h.Set("Cache-Control", "private, max-age=300")
	}
	return h
}
