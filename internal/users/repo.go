package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

// Repo persists users. Upsert sets Role and IsActive only when creating a
// user; SetRole is the only way to change them afterwards.
type Repo interface {
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	SetRole(ctx context.Context, userID, role string, active bool) error
}
