package documents

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist or its blob is gone.
	ErrNotFound = errors.New("document not found")
	// ErrAccessDenied is returned when the gate denies access. Handlers render
	// it exactly like ErrNotFound.
	ErrAccessDenied = errors.New("access denied")
	// ErrForbidden is returned when the actor's role cannot perform an operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned for malformed requests.
	ErrInvalidInput = errors.New("invalid input")
	// ErrLocked is returned when an owner tries to delete a reviewed document.
	ErrLocked = errors.New("document already reviewed")
	// ErrStorage wraps metadata or blob backend failures.
	ErrStorage = errors.New("storage failure")
	// ErrSignedURLUnsupported is returned when the blob backend cannot presign.
	ErrSignedURLUnsupported = errors.New("signed urls not supported by storage backend")

	// ErrUnknownActor is returned by a RoleProvider for an unknown actor id.
	ErrUnknownActor = errors.New("unknown actor")
	// ErrUnknownApplication is returned by an OwnerRegistry for an unknown application id.
	ErrUnknownApplication = errors.New("unknown application")
)

// Validation error codes.
const (
	CodeTransport           = "transport"
	CodeSizeExceeded        = "size_exceeded"
	CodeTypeNotAllowed      = "type_not_allowed"
	CodeContentMismatch     = "content_mismatch"
	CodeUnknownDocumentType = "unknown_document_type"
	CodeEmptyFile           = "empty_file"
)

// ValidationError describes why one uploaded file was rejected.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UploadStatus is the transport-level outcome of receiving one file.
type UploadStatus int

const (
	UploadOK UploadStatus = iota
	UploadErrSizeExceeded
	UploadErrPartial
	UploadErrNoFile
	UploadErrNoTmpDir
	UploadErrCantWrite
	UploadErrExtension
	// UploadErrMultiple marks a field that carried more than one file.
	UploadErrMultiple
)

// Message returns the human-readable text for a failed transfer.
func (s UploadStatus) Message() string {
	switch s {
	case UploadOK:
		return ""
	case UploadErrSizeExceeded:
		return "file exceeds the maximum upload size"
	case UploadErrPartial:
		return "file was only partially uploaded"
	case UploadErrNoFile:
		return "no file was uploaded"
	case UploadErrNoTmpDir:
		return "server is missing a temporary folder"
	case UploadErrCantWrite:
		return "server failed to write the file"
	case UploadErrExtension:
		return "upload was stopped by a server extension"
	case UploadErrMultiple:
		return "only one file per document type is allowed"
	default:
		return "unknown upload error"
	}
}
