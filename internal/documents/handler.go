package documents

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"admissions-backend/internal/shared/server/middleware"
	"admissions-backend/internal/shared/server/respond"
	"admissions-backend/internal/shared/telemetry"
)

const (
	maxUploadRequestSize = 40 << 20 // whole multipart request
	maxMultipartMemory   = 8 << 20
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
	// UploadMiddleware runs before the upload handler, e.g. rate limiting.
	UploadMiddleware []gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, uploadMiddleware ...gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, UploadMiddleware: uploadMiddleware}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	upload := append(append([]gin.HandlerFunc{}, h.UploadMiddleware...), h.upload)
	rg.POST("/applications/:id/documents", upload...)
	rg.GET("/applications/:id/documents", h.list)
	rg.GET("/documents/:id", h.serve)
	rg.GET("/documents/:id/url", h.signedURL)
	rg.PATCH("/documents/:id/verification", h.verify)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	actorID := middleware.ActorIDFromContext(c)
	applicationID := strings.TrimSpace(c.Param("id"))
	c.Set("applicationId", applicationID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadRequestSize)
	if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds the maximum request size", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
		return
	}
	defer func() { _ = c.Request.MultipartForm.RemoveAll() }()

	files := make(map[string]FileInput, len(c.Request.MultipartForm.File))
	for field, headers := range c.Request.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		if len(headers) > 1 {
			files[field] = FileInput{FileName: headers[0].Filename, Status: UploadErrMultiple}
			continue
		}
		in, closeFn := fileInput(headers[0])
		defer closeFn()
		files[field] = in
	}
	if len(files) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "no files uploaded", nil)
		return
	}

	res, err := h.Svc.UploadDocuments(c.Request.Context(), applicationID, actorID, files)
	if err != nil {
		h.writeError(c, err, "application not available", "failed to upload documents")
		return
	}

	status := http.StatusCreated
	switch {
	case len(res.Uploaded) == 0 && len(res.Errors) > 0:
		status = http.StatusBadRequest
	case len(res.Errors) > 0:
		status = http.StatusOK
	case len(res.Uploaded) == 0:
		status = http.StatusOK
	}
	respond.JSON(c, status, toUploadResponse(res))
}

// fileInput opens a multipart file header. The returned func closes it.
func fileInput(fh *multipart.FileHeader) (FileInput, func()) {
	in := FileInput{
		FileName:     fh.Filename,
		DeclaredMIME: fh.Header.Get("Content-Type"),
		Size:         fh.Size,
		Status:       UploadOK,
	}
	if fh.Filename == "" && fh.Size == 0 {
		in.Status = UploadErrNoFile
		return in, func() {}
	}
	f, err := fh.Open()
	if err != nil {
		in.Status = UploadErrCantWrite
		return in, func() {}
	}
	in.Content = f
	return in, func() { _ = f.Close() }
}

func (h *Handler) list(c *gin.Context) {
	actorID := middleware.ActorIDFromContext(c)
	applicationID := strings.TrimSpace(c.Param("id"))
	c.Set("applicationId", applicationID)

	docs, err := h.Svc.List(c.Request.Context(), actorID, applicationID)
	if err != nil {
		h.writeError(c, err, "application not available", "failed to list documents")
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) serve(c *gin.Context) {
	actorID := middleware.ActorIDFromContext(c)
	documentID := strings.TrimSpace(c.Param("id"))
	c.Set("documentId", documentID)

	mode, err := ParseMode(c.Query("mode"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "mode must be inline or download", nil)
		return
	}

	resp, err := h.Svc.Serve(c.Request.Context(), documentID, actorID, mode)
	if err != nil {
		h.writeError(c, err, "document not available", "failed to fetch document")
		return
	}
	defer resp.Close()

	header := c.Writer.Header()
	for k, v := range resp.Header {
		header[k] = v
	}

	if rs, ok := resp.Body.(io.ReadSeeker); ok && resp.Ranged && resp.Header.Get("Accept-Ranges") == "bytes" {
		tracked := &trackedReadSeeker{rs: rs}
		http.ServeContent(c.Writer, c.Request, "", resp.ModTime, tracked)
		if tracked.err != nil {
			abortStream(c, documentID, tracked.err)
		}
		return
	}

	header.Set("Content-Length", strconv.FormatInt(resp.Size, 10))
	c.Status(http.StatusOK)
	if c.Request.Method == http.MethodHead {
		return
	}
	n, err := io.Copy(c.Writer, resp.Body)
	if err == nil && n != resp.Size {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		abortStream(c, documentID, err)
	}
}

// abortStream logs a failed transfer and aborts the connection so the client
// sees a truncated response instead of a silently short body.
func abortStream(c *gin.Context, documentID string, err error) {
	telemetry.Error("documents.serve.stream_failed", map[string]any{
		"document_id": documentID,
		"request_id":  middleware.RequestIDFromContext(c),
		"error":       err,
	})
	panic(http.ErrAbortHandler)
}

type trackedReadSeeker struct {
	rs  io.ReadSeeker
	err error
}

func (t *trackedReadSeeker) Read(p []byte) (int, error) {
	n, err := t.rs.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

func (t *trackedReadSeeker) Seek(offset int64, whence int) (int64, error) {
	return t.rs.Seek(offset, whence)
}

func (h *Handler) signedURL(c *gin.Context) {
	actorID := middleware.ActorIDFromContext(c)
	documentID := strings.TrimSpace(c.Param("id"))
	c.Set("documentId", documentID)

	mode, err := ParseMode(c.Query("mode"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "mode must be inline or download", nil)
		return
	}

	signed, err := h.Svc.SignedURL(c.Request.Context(), actorID, documentID, mode)
	if err != nil {
		h.writeError(c, err, "document not available", "failed to sign document url")
		return
	}
	c.Header("Cache-Control", "no-store")
	respond.JSON(c, http.StatusOK, gin.H{
		"url":       signed.URL,
		"expiresAt": signed.ExpiresAt,
	})
}

func (h *Handler) verify(c *gin.Context) {
	actorID := middleware.ActorIDFromContext(c)
	documentID := strings.TrimSpace(c.Param("id"))
	c.Set("documentId", documentID)

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if _, ok := ParseVerificationStatus(req.Status); !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "status must be pending, verified or rejected", nil)
		return
	}

	doc, err := h.Svc.Verify(c.Request.Context(), actorID, documentID, req.Status, req.Notes)
	if err != nil {
		h.writeError(c, err, "document not available", "failed to update verification")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) delete(c *gin.Context) {
	actorID := middleware.ActorIDFromContext(c)
	documentID := strings.TrimSpace(c.Param("id"))
	c.Set("documentId", documentID)

	res, err := h.Svc.Delete(c.Request.Context(), actorID, documentID)
	if err != nil {
		h.writeError(c, err, "document not available", "failed to delete document")
		return
	}

	warnings := []string{}
	if !res.BlobDeleted {
		warnings = append(warnings, "file cleanup is pending")
	}
	respond.OK(c, gin.H{
		"deleted":    true,
		"documentId": res.Document.ID,
		"warnings":   warnings,
	})
}

// writeError maps service errors onto responses. Denials and missing records
// share one opaque 404 so callers cannot probe for existence.
func (h *Handler) writeError(c *gin.Context, err error, notAvailable, failure string) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAccessDenied):
		respond.Error(c, http.StatusNotFound, "not_available", notAvailable, nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role for this operation", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request", nil)
	case errors.Is(err, ErrLocked):
		respond.Error(c, http.StatusConflict, "document_locked", "document has already been reviewed", nil)
	case errors.Is(err, ErrSignedURLUnsupported):
		respond.Error(c, http.StatusNotImplemented, "not_supported", "signed urls are not available for this storage backend", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", failure, nil)
	}
}
