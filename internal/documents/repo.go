package documents

import (
	"context"
	"time"
)

// DocumentsRepo defines persistence operations for document metadata.
type DocumentsRepo interface {
	Insert(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	ListByApplication(ctx context.Context, applicationID string) ([]Document, error)
	UpdateVerification(ctx context.Context, documentID string, status VerificationStatus, notes *string, verifiedBy string, verifiedAt time.Time) (Document, error)
	Delete(ctx context.Context, documentID string) (Document, error)
	ExistsByStoredKey(ctx context.Context, storedKey string) (bool, error)
}
