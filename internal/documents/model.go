package documents

import (
	"strings"
	"time"
)

// DocumentType classifies an upload and selects its size/type policy.
type DocumentType string

const (
	TypeTranscript           DocumentType = "transcript"
	TypeCertificate          DocumentType = "certificate"
	TypeIdentity             DocumentType = "identity"
	TypePhoto                DocumentType = "photo"
	TypePersonalStatement    DocumentType = "personal_statement"
	TypeRecommendationLetter DocumentType = "recommendation_letter"
)

// AllTypes lists every accepted document type.
var AllTypes = []DocumentType{
	TypeTranscript,
	TypeCertificate,
	TypeIdentity,
	TypePhoto,
	TypePersonalStatement,
	TypeRecommendationLetter,
}

// ParseDocumentType maps a form field name onto a DocumentType.
func ParseDocumentType(s string) (DocumentType, bool) {
	t := DocumentType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// VerificationStatus is the review state of a document.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// ParseVerificationStatus validates a review status.
func ParseVerificationStatus(s string) (VerificationStatus, bool) {
	switch v := VerificationStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case StatusPending, StatusVerified, StatusRejected:
		return v, true
	}
	return "", false
}

// Document is the metadata record for one uploaded file.
type Document struct {
	ID                 string
	ApplicationID      string
	Type               DocumentType
	OriginalFilename   string
	StoredKey          string
	StorageBackend     string
	UploadedBy         string
	UploadedAt         time.Time
	MimeType           string
	SizeBytes          int64
	ChecksumSHA256     string
	PageCount          *int
	VerificationStatus VerificationStatus
	VerificationNotes  *string
	VerifiedBy         *string
	VerifiedAt         *time.Time
	IsRequired         bool
}

// Ref is the summary returned for each stored upload.
type Ref struct {
	DocumentID   string
	DocumentType DocumentType
	FileName     string
	MimeType     string
	SizeBytes    int64
}

func (d Document) ref() Ref {
	return Ref{
		DocumentID:   d.ID,
		DocumentType: d.Type,
		FileName:     d.OriginalFilename,
		MimeType:     d.MimeType,
		SizeBytes:    d.SizeBytes,
	}
}

// Mode selects how a document is delivered.
type Mode string

const (
	ModeInline   Mode = "inline"
	ModeDownload Mode = "download"
)

// ParseMode accepts "inline" (the default when empty) or "download".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inline", "view":
		return ModeInline, nil
	case "download", "attachment":
		return ModeDownload, nil
	}
	return "", ErrInvalidInput
}
