package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"admissions-backend/internal/audit"
	"admissions-backend/internal/inspect"
	"admissions-backend/internal/integrity"
	"admissions-backend/internal/notifications"
	"admissions-backend/internal/shared/metrics"
	"admissions-backend/internal/shared/storage/blob"
	"admissions-backend/internal/shared/telemetry"
	"admissions-backend/internal/shared/util"
)

// Service contains business logic for documents.
type Service struct {
	Repo      DocumentsRepo
	Store     blob.Store
	Gate      *Gate
	Policy    Policy
	Integrity *integrity.Reporter
	Notifier  notifications.Notifier

	SignedURLTTL  time.Duration
	NotifyTimeout time.Duration
	Now           func() time.Time
}

const defaultNotifyTimeout = 5 * time.Second

// UploadResult is the outcome of a batch upload. Success is true only when
// Errors is empty; Uploaded may be non-empty either way.
type UploadResult struct {
	Uploaded []Ref
	Errors   []string
	Success  bool
}

// UploadDocuments validates and stores every file in files, keyed by form
// field name (the document type). One file failing never stops the others.
// The returned error is set only when the batch could not be attempted.
func (s *Service) UploadDocuments(ctx context.Context, applicationID, actorID string, files map[string]FileInput) (UploadResult, error) {
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return UploadResult{}, ErrInvalidInput
	}

	decision, err := s.Gate.AuthorizeApplication(ctx, actorID, applicationID, audit.ActionUpload)
	if err != nil {
		return UploadResult{}, err
	}
	if err := decision.Err(); err != nil {
		return UploadResult{}, err
	}

	fields := make([]string, 0, len(files))
	for field := range files {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	result := UploadResult{Uploaded: []Ref{}, Errors: []string{}}
	for _, field := range fields {
		in := files[field]
		if !in.present() {
			continue
		}
		doc, err := s.storeOne(ctx, applicationID, actorID, field, in)
		if err != nil {
			result.Errors = append(result.Errors, uploadErrorMessage(field, err))
			continue
		}
		result.Uploaded = append(result.Uploaded, doc.ref())
	}
	result.Success = len(result.Errors) == 0

	s.notifyUploaded(ctx, applicationID, actorID, result)
	return result, nil
}

func (s *Service) storeOne(ctx context.Context, applicationID, actorID, field string, in FileInput) (Document, error) {
	v, verr := s.policy().Validate(field, in)
	if verr != nil {
		metrics.IncUpload(metricType(field), "rejected")
		telemetry.Info("documents.upload.validation_failed", map[string]any{
			"application_id": applicationID,
			"actor_id":       actorID,
			"field":          field,
			"code":           verr.Code,
			"size_bytes":     in.Size,
			"declared_mime":  in.DeclaredMIME,
		})
		return Document{}, verr
	}

	checksum, n, err := util.SHA256Hex(in.Content)
	if err != nil {
		metrics.IncUpload(string(v.Type), "failed")
		return Document{}, &ValidationError{Field: field, Code: CodeTransport, Message: "file could not be read"}
	}
	if _, err := in.Content.Seek(0, io.SeekStart); err != nil {
		metrics.IncUpload(string(v.Type), "failed")
		return Document{}, &ValidationError{Field: field, Code: CodeTransport, Message: "file could not be read"}
	}
	if n > s.policy()[v.Type].MaxBytes {
		metrics.IncUpload(string(v.Type), "rejected")
		return Document{}, &ValidationError{Field: field, Code: CodeSizeExceeded, Message: fmt.Sprintf("file exceeds the %s limit", humanBytes(s.policy()[v.Type].MaxBytes))}
	}

	var pages *int
	if count, err := inspect.PageCount(in.Content, n, v.MIME); err == nil {
		pages = &count
	} else if !errors.Is(err, inspect.ErrUnsupported) {
		telemetry.Info("documents.upload.inspect_failed", map[string]any{
			"application_id": applicationID,
			"field":          field,
			"error":          err,
		})
	}

	now := s.now()
	key := blob.BuildKey(applicationID, string(v.Type), now, v.Ext)
	backend := s.Store.Backend()

	if err := s.Store.Put(ctx, key, io.NewSectionReader(in.Content, 0, n), n, v.MIME); err != nil {
		metrics.IncUpload(string(v.Type), "failed")
		telemetry.Error("documents.upload.store_failed", map[string]any{
			"application_id": applicationID,
			"field":          field,
			"stored_key":     key,
			"backend":        backend,
			"error":          err,
		})
		return Document{}, fmt.Errorf("%w: put blob: %v", ErrStorage, err)
	}

	doc := Document{
		ID:                 uuid.NewString(),
		ApplicationID:      applicationID,
		Type:               v.Type,
		OriginalFilename:   displayName(in.FileName, v),
		StoredKey:          key,
		StorageBackend:     backend,
		UploadedBy:         actorID,
		UploadedAt:         now,
		MimeType:           v.MIME,
		SizeBytes:          n,
		ChecksumSHA256:     checksum,
		PageCount:          pages,
		VerificationStatus: StatusPending,
		IsRequired:         v.Required,
	}

	if err := s.Repo.Insert(ctx, doc); err != nil {
		metrics.IncUpload(string(v.Type), "failed")
		telemetry.Error("documents.upload.insert_failed", map[string]any{
			"application_id": applicationID,
			"field":          field,
			"stored_key":     key,
			"backend":        backend,
			"error":          err,
		})
		if delErr := s.Store.Delete(ctx, key); delErr != nil {
			telemetry.Warn("documents.upload.orphaned_blob", map[string]any{
				"application_id": applicationID,
				"stored_key":     key,
				"backend":        backend,
				"error":          delErr,
			})
			s.Integrity.Report(ctx, integrity.Event{
				Kind:      integrity.KindOrphanedBlob,
				StoredKey: key,
				Backend:   backend,
				Detail:    "metadata insert failed and blob cleanup failed",
			})
		}
		return Document{}, fmt.Errorf("%w: insert metadata: %v", ErrStorage, err)
	}

	metrics.IncUpload(string(v.Type), "stored")
	metrics.ObserveUploadBytes(n)
	telemetry.Info("documents.upload.stored", map[string]any{
		"application_id": applicationID,
		"actor_id":       actorID,
		"document_id":    doc.ID,
		"document_type":  string(doc.Type),
		"size_bytes":     n,
		"backend":        backend,
	})
	return doc, nil
}

func (s *Service) notifyUploaded(ctx context.Context, applicationID, actorID string, result UploadResult) {
	if s.Notifier == nil || (len(result.Uploaded) == 0 && len(result.Errors) == 0) {
		return
	}
	ids := make([]string, 0, len(result.Uploaded))
	for _, ref := range result.Uploaded {
		ids = append(ids, ref.DocumentID)
	}
	ev := notifications.Event{
		Event:         notifications.EventDocumentsUploaded,
		ApplicationID: applicationID,
		ActorID:       actorID,
		Uploaded:      len(result.Uploaded),
		Errors:        len(result.Errors),
		DocumentIDs:   ids,
		OccurredAt:    s.now(),
	}
	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	notifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.Notifier.Notify(notifyCtx, ev); err != nil {
		telemetry.Warn("notifications.send_failed", map[string]any{
			"application_id": applicationID,
			"event":          ev.Event,
			"error":          err,
		})
	}
}

// List returns an application's documents.
func (s *Service) List(ctx context.Context, actorID, applicationID string) ([]Document, error) {
	decision, err := s.Gate.AuthorizeApplication(ctx, actorID, applicationID, audit.ActionList)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	docs, err := s.Repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", ErrStorage, err)
	}
	return docs, nil
}

// Verify sets the review status of a document. Only elevated actors may verify.
func (s *Service) Verify(ctx context.Context, actorID, documentID, status string, notes *string) (Document, error) {
	st, ok := ParseVerificationStatus(status)
	if !ok {
		return Document{}, ErrInvalidInput
	}

	actor, reason, err := s.Gate.actor(ctx, actorID)
	if err != nil {
		return Document{}, err
	}
	if reason != "" {
		return Document{}, ErrAccessDenied
	}
	if actor.Role != RoleElevated {
		return Document{}, ErrForbidden
	}

	decision, err := s.Gate.authorizeDocument(ctx, actorID, documentID, audit.ActionVerify)
	if err != nil {
		return Document{}, err
	}
	if err := decision.Err(); err != nil {
		return Document{}, err
	}

	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		if trimmed == "" {
			notes = nil
		} else {
			notes = &trimmed
		}
	}
	doc, err := s.Repo.UpdateVerification(ctx, documentID, st, notes, actor.ID, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("%w: update verification: %v", ErrStorage, err)
	}
	telemetry.Info("documents.verified", map[string]any{
		"document_id": doc.ID,
		"actor_id":    actor.ID,
		"status":      string(st),
	})
	return doc, nil
}

// DeleteResult reports the outcome of a delete. BlobDeleted is false when the
// blob could not be removed; that case is recorded for reconciliation.
type DeleteResult struct {
	Document    Document
	BlobDeleted bool
}

// Delete removes a document. Owners may delete only while the document is
// pending review; elevated actors may always delete. The metadata row is
// removed even when the blob delete fails.
func (s *Service) Delete(ctx context.Context, actorID, documentID string) (DeleteResult, error) {
	decision, err := s.Gate.authorizeDocument(ctx, actorID, documentID, audit.ActionDelete)
	if err != nil {
		return DeleteResult{}, err
	}
	if err := decision.Err(); err != nil {
		return DeleteResult{}, err
	}
	if decision.Actor.Role != RoleElevated && decision.Document.VerificationStatus != StatusPending {
		return DeleteResult{}, ErrLocked
	}

	doc, err := s.Repo.Delete(ctx, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DeleteResult{}, ErrNotFound
		}
		return DeleteResult{}, fmt.Errorf("%w: delete metadata: %v", ErrStorage, err)
	}

	res := DeleteResult{Document: doc, BlobDeleted: true}
	if err := s.Store.Delete(ctx, doc.StoredKey); err != nil {
		res.BlobDeleted = false
		telemetry.Warn("documents.delete.blob_failed", map[string]any{
			"document_id": doc.ID,
			"stored_key":  doc.StoredKey,
			"backend":     s.Store.Backend(),
			"error":       err,
		})
		s.Integrity.Report(ctx, integrity.Event{
			Kind:       integrity.KindBlobDeleteFailed,
			DocumentID: doc.ID,
			StoredKey:  doc.StoredKey,
			Backend:    s.Store.Backend(),
			Detail:     "metadata deleted, blob delete failed",
		})
	}
	telemetry.Info("documents.deleted", map[string]any{
		"document_id":  doc.ID,
		"actor_id":     actorID,
		"blob_deleted": res.BlobDeleted,
	})
	return res, nil
}

// SignedURL is a time-limited direct download link.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// SignedURL returns a presigned link for a document when the blob backend
// supports it. Callers the gate denies never learn whether it does.
func (s *Service) SignedURL(ctx context.Context, actorID, documentID string, mode Mode) (SignedURL, error) {
	decision, err := s.Gate.authorizeDocument(ctx, actorID, documentID, audit.ActionSignedURL)
	if err != nil {
		return SignedURL{}, err
	}
	if err := decision.Err(); err != nil {
		return SignedURL{}, err
	}

	presigner, ok := s.Store.(blob.Presigner)
	if !ok {
		return SignedURL{}, ErrSignedURLUnsupported
	}

	ttl := s.SignedURLTTL
	if ttl <= 0 {
		ttl = blob.DefaultPresignTTL
	}
	doc := decision.Document
	url, err := presigner.PresignGet(ctx, doc.StoredKey, ttl, contentDisposition(mode, doc.OriginalFilename))
	if err != nil {
		telemetry.Error("documents.signed_url.failed", map[string]any{
			"document_id": doc.ID,
			"stored_key":  doc.StoredKey,
			"backend":     s.Store.Backend(),
			"error":       err,
		})
		return SignedURL{}, fmt.Errorf("%w: presign: %v", ErrStorage, err)
	}
	return SignedURL{URL: url, ExpiresAt: s.now().Add(ttl)}, nil
}

func (s *Service) policy() Policy {
	if s.Policy == nil {
		return DefaultPolicy()
	}
	return s.Policy
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// uploadErrorMessage renders a per-file error without backend detail.
func uploadErrorMessage(field string, err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return field + ": file could not be stored"
}

func metricType(field string) string {
	if t, ok := ParseDocumentType(field); ok {
		return string(t)
	}
	return "unknown"
}

// displayName sanitizes the uploader's file name, falling back to the type
// and sniffed extension.
func displayName(name string, v validated) string {
	if clean, err := util.SanitizeFileName(name); err == nil {
		return clean
	}
	return string(v.Type) + v.Ext
}

func contentDisposition(mode Mode, fileName string) string {
	disposition := "inline"
	if mode == ModeDownload {
		disposition = "attachment"
	}
	if fileName == "" {
		return disposition
	}
	if v := mime.FormatMediaType(disposition, map[string]string{"filename": fileName}); v != "" {
		return v
	}
	return disposition
}
