package documents

import (
	"context"
	"errors"
	"io"
	"testing"

	"admissions-backend/internal/integrity"
)

func TestServeInlinePDF(t *testing.T) {
	env := newTestEnv(t)
	doc := env.uploadOne(t)

	resp, err := env.svc.Serve(context.Background(), doc.ID, "student-1", ModeInline)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != string(pdfContent) {
		t.Fatalf("body mismatch")
	}
	if !resp.Ranged || resp.Size != int64(len(pdfContent)) {
		t.Fatalf("unexpected response %+v", resp)
	}
	h := resp.Header
	if h.Get("Content-Type") != "application/pdf" || h.Get("Accept-Ranges") != "bytes" {
		t.Fatalf("unexpected headers %v", h)
	}
	if h.Get("Content-Disposition") != "inline; filename=grades.pdf" {
		t.Fatalf("unexpected disposition %q", h.Get("Content-Disposition"))
	}
}

func TestDeliveryHeaders(t *testing.T) {
	cases := []struct {
		name        string
		doc         Document
		mode        Mode
		contentType string
		cache       string
		frame       string
	}{
		{name: "pdf inline", doc: Document{MimeType: mimePDF, OriginalFilename: "a.pdf"}, mode: ModeInline, contentType: mimePDF, cache: "no-cache", frame: "SAMEORIGIN"},
		{name: "image inline", doc: Document{MimeType: mimePNG, OriginalFilename: "a.png"}, mode: ModeInline, contentType: mimePNG, cache: "private, max-age=300", frame: "SAMEORIGIN"},
		{name: "download", doc: Document{MimeType: mimePDF, OriginalFilename: "a.pdf"}, mode: ModeDownload, contentType: "application/octet-stream", cache: "private, no-store"},
		{name: "unknown type", doc: Document{}, mode: ModeInline, contentType: "application/octet-stream", cache: "private, max-age=300", frame: "SAMEORIGIN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := deliveryHeaders(tc.doc, tc.mode)
			if h.Get("X-Content-Type-Options") != "nosniff" {
				t.Fatalf("missing nosniff")
			}
			if h.Get("Content-Type") != tc.contentType {
				t.Fatalf("content type %q, want %q", h.Get("Content-Type"), tc.contentType)
			}
			if h.Get("Cache-Control") != tc.cache {
				t.Fatalf("cache %q, want %q", h.Get("Cache-Control"), tc.cache)
			}
			if h.Get("X-Frame-Options") != tc.frame {
				t.Fatalf("frame %q, want %q", h.Get("X-Frame-Options"), tc.frame)
			}
		})
	}
}

func TestServeMissingBlobReportsIntegrity(t *testing.T) {
	env := newTestEnv(t)
	doc := env.uploadOne(t)
	env.store.Remove(doc.StoredKey)

	for i := 0; i < 5; i++ {
		_, err := env.svc.Serve(context.Background(), doc.ID, "student-1", ModeInline)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("serve %d: expected ErrNotFound, got %v", i, err)
		}
	}
	events := env.integrity.All()
	if len(events) != 1 || events[0].Kind != integrity.KindMissingBlob || events[0].DocumentID != doc.ID {
		t.Fatalf("expected one open missing_blob event across repeated serves, got %+v", events)
	}
}

func TestServeStorageError(t *testing.T) {
	env := newTestEnv(t)
	doc := env.uploadOne(t)
	env.store.FailGets = true

	_, err := env.svc.Serve(context.Background(), doc.ID, "student-1", ModeDownload)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if len(env.integrity.All()) != 0 {
		t.Fatalf("storage errors are not integrity events")
	}
}

func TestServeDeniedReadsNothing(t *testing.T) {
	env := newTestEnv(t)
	doc := env.uploadOne(t)
	env.store.FailGets = true

	_, err := env.svc.Serve(context.Background(), doc.ID, "student-2", ModeInline)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied before any blob read, got %v", err)
	}
}
