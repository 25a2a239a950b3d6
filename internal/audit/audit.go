// Package audit persists the trail of document accesses made by elevated actors.
package audit

import (
	"context"
	"time"
)

// Actions recorded in the trail.
const (
	ActionRead      = "document.read"
	ActionDownload  = "document.download"
	ActionSignedURL = "document.signed_url"
	ActionVerify    = "document.verify"
	ActionDelete    = "document.delete"
	ActionList      = "application.list_documents"
	ActionUpload    = "application.upload_documents"
)

// Entry is one audited access.
type Entry struct {
	ID            string
	ActorID       string
	Action        string
	DocumentID    string
	ApplicationID string
	OccurredAt    time.Time
}

// Recorder stores audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Repo is a Recorder that can also list entries.
type Repo interface {
	Recorder
	ListByDocument(ctx context.Context, documentID string) ([]Entry, error)
}
