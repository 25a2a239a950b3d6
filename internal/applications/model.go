package applications

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("application not found")
	ErrInvalidInput = errors.New("invalid application input")
)

const StatusDraft = "draft"

// Application is the slice of an admissions application this service needs:
// who owns it.
type Application struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Program   string    `json:"program,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
