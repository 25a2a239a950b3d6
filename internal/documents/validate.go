package documents

import (
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// File is the readable body of one upload. multipart.File satisfies it.
type File interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// FileInput is one file received for a form field.
type FileInput struct {
	FileName     string
	DeclaredMIME string
	Size         int64
	Status       UploadStatus
	Content      File
}

func (in FileInput) present() bool {
	return in.Status != UploadErrNoFile
}

// validated carries what validation learned about an accepted file.
type validated struct {
	Type     DocumentType
	MIME     string
	Ext      string
	Required bool
}

// Validate checks one file against the policy for the type named by field.
// On success the content is rewound to the start.
func (p Policy) Validate(field string, in FileInput) (validated, *ValidationError) {
	fail := func(code, msg string) (validated, *ValidationError) {
		return validated{}, &ValidationError{Field: field, Code: code, Message: msg}
	}

	if in.Status != UploadOK {
		return fail(CodeTransport, in.Status.Message())
	}

	docType, ok := ParseDocumentType(field)
	if !ok {
		return fail(CodeUnknownDocumentType, "unknown document type")
	}
	tp, ok := p[docType]
	if !ok {
		return fail(CodeUnknownDocumentType, "unknown document type")
	}

	if in.Content == nil || in.Size <= 0 {
		return fail(CodeEmptyFile, "file is empty")
	}
	if in.Size > tp.MaxBytes {
		return fail(CodeSizeExceeded, fmt.Sprintf("file exceeds the %s limit", humanBytes(tp.MaxBytes)))
	}

	declared := normalizeMIME(in.DeclaredMIME)
	if !tp.Allows(declared) {
		return fail(CodeTypeNotAllowed, fmt.Sprintf("file type %q is not allowed", declared))
	}

	if _, err := in.Content.Seek(0, io.SeekStart); err != nil {
		return fail(CodeTransport, "file could not be read")
	}
	sniffed, err := mimetype.DetectReader(in.Content)
	if err != nil {
		return fail(CodeTransport, "file could not be read")
	}
	if _, err := in.Content.Seek(0, io.SeekStart); err != nil {
		return fail(CodeTransport, "file could not be read")
	}
	if !sniffed.Is(declared) {
		return fail(CodeContentMismatch, "file content does not match its declared type")
	}

	return validated{
		Type:     docType,
		MIME:     declared,
		Ext:      sniffed.Extension(),
		Required: tp.Required,
	}, nil
}

func humanBytes(n int64) string {
	const mib = 1 << 20
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%d MiB", n/mib)
	}
	if n >= 1<<10 && n%(1<<10) == 0 {
		return fmt.Sprintf("%d KiB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
