package applications

import "context"

type Repo interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Application, error)
}
