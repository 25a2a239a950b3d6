package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
// Storage keys and backends are never exposed.
type DocumentResponse struct {
	DocumentID         string     `json:"documentId"`
	ApplicationID      string     `json:"applicationId"`
	DocumentType       string     `json:"documentType"`
	FileName           string     `json:"fileName"`
	MimeType           string     `json:"mimeType"`
	SizeBytes          int64      `json:"sizeBytes"`
	ChecksumSHA256     string     `json:"checksumSha256,omitempty"`
	PageCount          *int       `json:"pageCount,omitempty"`
	UploadedBy         string     `json:"uploadedBy"`
	UploadedAt         time.Time  `json:"uploadedAt"`
	VerificationStatus string     `json:"verificationStatus"`
	VerificationNotes  *string    `json:"verificationNotes,omitempty"`
	VerifiedBy         *string    `json:"verifiedBy,omitempty"`
	VerifiedAt         *time.Time `json:"verifiedAt,omitempty"`
	IsRequired         bool       `json:"isRequired"`
}

// RefResponse summarizes one stored upload.
type RefResponse struct {
	DocumentID   string `json:"documentId"`
	DocumentType string `json:"documentType"`
	FileName     string `json:"fileName"`
	MimeType     string `json:"mimeType"`
	SizeBytes    int64  `json:"sizeBytes"`
}

// UploadResponse is returned from a batch upload.
type UploadResponse struct {
	Success       bool          `json:"success"`
	Uploaded      []RefResponse `json:"uploaded"`
	Errors        []string      `json:"errors"`
	UploadedCount int           `json:"uploadedCount"`
	ErrorCount    int           `json:"errorCount"`
}

type verifyRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:         doc.ID,
		ApplicationID:      doc.ApplicationID,
		DocumentType:       string(doc.Type),
		FileName:           doc.OriginalFilename,
		MimeType:           doc.MimeType,
		SizeBytes:          doc.SizeBytes,
		ChecksumSHA256:     doc.ChecksumSHA256,
		PageCount:          doc.PageCount,
		UploadedBy:         doc.UploadedBy,
		UploadedAt:         doc.UploadedAt,
		VerificationStatus: string(doc.VerificationStatus),
		VerificationNotes:  doc.VerificationNotes,
		VerifiedBy:         doc.VerifiedBy,
		VerifiedAt:         doc.VerifiedAt,
		IsRequired:         doc.IsRequired,
	}
}

func toUploadResponse(res UploadResult) UploadResponse {
	refs := make([]RefResponse, 0, len(res.Uploaded))
	for _, r := range res.Uploaded {
		refs = append(refs, RefResponse{
			DocumentID:   r.DocumentID,
			DocumentType: string(r.DocumentType),
			FileName:     r.FileName,
			MimeType:     r.MimeType,
			SizeBytes:    r.SizeBytes,
		})
	}
	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	return UploadResponse{
		Success:       res.Success,
		Uploaded:      refs,
		Errors:        errs,
		UploadedCount: len(refs),
		ErrorCount:    len(errs),
	}
}
