package documents

import (
	"mime"
	"strings"

	"admissions-backend/internal/shared/config"
)

const (
	mimePDF    = "application/pdf"
	mimeJPEG   = "image/jpeg"
	mimePNG    = "image/png"
	mimeDOCX   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeMSWord = "application/msword"
)

// TypePolicy bounds what may be uploaded for one document type.
type TypePolicy struct {
	MaxBytes    int64
	AllowedMIME []string
	Required    bool
}

// Allows reports whether declared is in the allow-list.
func (p TypePolicy) Allows(declared string) bool {
	for _, m := range p.AllowedMIME {
		if m == declared {
			return true
		}
	}
	return false
}

// Policy maps each document type to its rules.
type Policy map[DocumentType]TypePolicy

// DefaultPolicy returns the built-in rules: 2 MiB images for photos and
// 5 MiB for everything else.
func DefaultPolicy() Policy {
	scans := []string{mimePDF, mimeJPEG, mimePNG}
	letters := []string{mimePDF, mimeDOCX, mimeMSWord}
	return Policy{
		TypeTranscript:           {MaxBytes: 5 << 20, AllowedMIME: scans, Required: true},
		TypeCertificate:          {MaxBytes: 5 << 20, AllowedMIME: scans},
		TypeIdentity:             {MaxBytes: 5 << 20, AllowedMIME: scans, Required: true},
		TypePhoto:                {MaxBytes: 2 << 20, AllowedMIME: []string{mimeJPEG, mimePNG}, Required: true},
		TypePersonalStatement:    {MaxBytes: 5 << 20, AllowedMIME: letters, Required: true},
		TypeRecommendationLetter: {MaxBytes: 5 << 20, AllowedMIME: letters},
	}
}

// PolicyFromConfig applies DOC_<TYPE>_* overrides on top of DefaultPolicy.
func PolicyFromConfig(overrides map[string]config.PolicyOverride) Policy {
	p := DefaultPolicy()
	for name, o := range overrides {
		t, ok := ParseDocumentType(name)
		if !ok {
			continue
		}
		tp := p[t]
		if o.MaxBytes > 0 {
			tp.MaxBytes = o.MaxBytes
		}
		if len(o.MIMETypes) > 0 {
			allowed := make([]string, 0, len(o.MIMETypes))
			for _, m := range o.MIMETypes {
				if n := normalizeMIME(m); n != "" {
					allowed = append(allowed, n)
				}
			}
			if len(allowed) > 0 {
				tp.AllowedMIME = allowed
			}
		}
		p[t] = tp
	}
	return p
}

// normalizeMIME lowercases a media type and drops its parameters.
func normalizeMIME(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(s); err == nil {
		return mt
	}
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
